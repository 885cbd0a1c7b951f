package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Fee API",
        "description": "Fee assignment workflow and student timetable API",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login and token lifecycle"},
        {"name": "Fees", "description": "Fee overview and assignment workflow"},
        {"name": "Timetable", "description": "Student timetable views"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid refresh token"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user info",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/fees/overview": {
            "get": {
                "tags": ["Fees"],
                "summary": "School-wide fee collection overview",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/fees/overview/export": {
            "get": {
                "tags": ["Fees"],
                "summary": "Download the fee overview as CSV or PDF",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File download"}
                }
            }
        },
        "/fees/classes": {
            "get": {
                "tags": ["Fees"],
                "summary": "List class sections",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/fees/classes/{id}/students": {
            "get": {
                "tags": ["Fees"],
                "summary": "List a class section's students with fee standing",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Roster load failed"}
                }
            }
        },
        "/fees/assignments/draft": {
            "post": {
                "tags": ["Fees"],
                "summary": "Open a fee assignment review session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateDraftRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid charge definition"},
                    "502": {"description": "Roster load failed"}
                }
            }
        },
        "/fees/assignments/{id}/toggle": {
            "patch": {
                "tags": ["Fees"],
                "summary": "Toggle a student's inclusion in the draft",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ToggleRowRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Session not found"}
                }
            }
        },
        "/fees/assignments/{id}/amount": {
            "patch": {
                "tags": ["Fees"],
                "summary": "Edit a student's proposed amount in the draft",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetAmountRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Session not found"}
                }
            }
        },
        "/fees/assignments/{id}/submit": {
            "post": {
                "tags": ["Fees"],
                "summary": "Submit the compiled assignment batch",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Session not found"},
                    "409": {"description": "Submission already in progress"},
                    "422": {"description": "No students selected"}
                }
            }
        },
        "/fees/assignments/{id}": {
            "delete": {
                "tags": ["Fees"],
                "summary": "Discard a review session",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/timetable/weekly": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Weekly timetable with derived subject list",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/subjects/{subjectId}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "All periods of one subject across the week",
                "parameters": [
                    {"name": "subjectId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/marks": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Calendar decoration for a subject's teaching days",
                "parameters": [
                    {"name": "subjectId", "in": "query", "required": true, "type": "string"},
                    {"name": "date", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/today": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Periods taught on the given date",
                "parameters": [
                    {"name": "date", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "RefreshTokenRequest": {
            "type": "object",
            "properties": {
                "refresh_token": {"type": "string"}
            },
            "required": ["refresh_token"]
        },
        "CreateDraftRequest": {
            "type": "object",
            "properties": {
                "feeName": {"type": "string"},
                "classSectionId": {"type": "string"},
                "mode": {"type": "string", "enum": ["FIXED", "PERCENTAGE"]},
                "magnitude": {"type": "string"},
                "dueDate": {"type": "string", "format": "date"}
            },
            "required": ["feeName", "classSectionId", "mode", "magnitude", "dueDate"]
        },
        "ToggleRowRequest": {
            "type": "object",
            "properties": {
                "studentId": {"type": "string"}
            },
            "required": ["studentId"]
        },
        "SetAmountRequest": {
            "type": "object",
            "properties": {
                "studentId": {"type": "string"},
                "amount": {"type": "string"}
            },
            "required": ["studentId"]
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
