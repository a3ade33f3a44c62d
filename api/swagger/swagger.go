package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "AEMS Portal API",
        "description": "Enrollment portal gateway over the registrar backend",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Login, registration and password reset"},
        {"name": "Session", "description": "Per-student enrollment session"},
        {"name": "Courses", "description": "Catalog with conflict flags and admin CRUD"},
        {"name": "Notifications", "description": "Session notification log"},
        {"name": "Payments", "description": "Registrar-proxied payment records"},
        {"name": "Faculty", "description": "Staff dashboard, approvals and exports"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check with storage mode",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/api/v1/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate and open a session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Token issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/api/v1/auth/register": {
            "post": {
                "tags": ["Auth"],
                "summary": "Create an account",
                "responses": {
                    "201": {"description": "Account created"}
                }
            }
        },
        "/api/v1/auth/forgot-password": {
            "post": {
                "tags": ["Auth"],
                "summary": "Start a password reset",
                "responses": {
                    "202": {"description": "Reset email sent"}
                }
            }
        },
        "/api/v1/auth/reset-password": {
            "post": {
                "tags": ["Auth"],
                "summary": "Complete a password reset",
                "responses": {
                    "200": {"description": "Password updated"}
                }
            }
        },
        "/api/v1/session": {
            "get": {
                "tags": ["Session"],
                "summary": "Current session snapshot",
                "responses": {
                    "200": {"description": "State", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/session/enroll/{id}": {
            "post": {
                "tags": ["Session"],
                "summary": "Enroll in a course",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Enrolled"},
                    "404": {"description": "Unknown course"},
                    "409": {"description": "Registration already submitted"}
                }
            }
        },
        "/api/v1/session/drop/{id}": {
            "post": {
                "tags": ["Session"],
                "summary": "Drop an enrolled course",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Dropped"}
                }
            }
        },
        "/api/v1/session/reserve/{id}": {
            "post": {
                "tags": ["Session"],
                "summary": "Toggle a course reservation",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Toggled"},
                    "409": {"description": "Registration already submitted"}
                }
            }
        },
        "/api/v1/session/submit": {
            "post": {
                "tags": ["Session"],
                "summary": "Submit the registration (one-way)",
                "responses": {
                    "200": {"description": "Submitted"}
                }
            }
        },
        "/api/v1/session/profile": {
            "put": {
                "tags": ["Session"],
                "summary": "Update the student profile",
                "responses": {
                    "200": {"description": "Updated"},
                    "409": {"description": "Program locked after submission"}
                }
            }
        },
        "/api/v1/session/department": {
            "put": {
                "tags": ["Session"],
                "summary": "Set the department filter",
                "responses": {
                    "200": {"description": "Set"}
                }
            }
        },
        "/api/v1/session/schedule": {
            "get": {
                "tags": ["Session"],
                "summary": "Weekly schedule for the active selection",
                "responses": {
                    "200": {"description": "Schedule"}
                }
            }
        },
        "/api/v1/session/billing": {
            "get": {
                "tags": ["Session"],
                "summary": "Tuition for the active selection",
                "responses": {
                    "200": {"description": "Billing"}
                }
            }
        },
        "/api/v1/session/logout": {
            "post": {
                "tags": ["Session"],
                "summary": "Close the session",
                "parameters": [
                    {"name": "clear", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "Logged out"}
                }
            }
        },
        "/api/v1/courses": {
            "get": {
                "tags": ["Courses"],
                "summary": "List catalog courses with conflict flags",
                "parameters": [
                    {"name": "department", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Courses"}
                }
            },
            "post": {
                "tags": ["Courses"],
                "summary": "Create a catalog course",
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/api/v1/courses/departments": {
            "get": {
                "tags": ["Courses"],
                "summary": "List catalog departments",
                "responses": {
                    "200": {"description": "Departments"}
                }
            }
        },
        "/api/v1/courses/{id}": {
            "put": {
                "tags": ["Courses"],
                "summary": "Update a catalog course",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Updated"}
                }
            },
            "delete": {
                "tags": ["Courses"],
                "summary": "Delete a catalog course",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/api/v1/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List notifications visible to the caller",
                "responses": {
                    "200": {"description": "Notifications"}
                }
            }
        },
        "/api/v1/notifications/{id}/read": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Mark one notification read",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Marked"}
                }
            }
        },
        "/api/v1/notifications/read-all": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Mark every visible notification read",
                "responses": {
                    "204": {"description": "Marked"}
                }
            }
        },
        "/api/v1/payments/student/{studentId}": {
            "get": {
                "tags": ["Payments"],
                "summary": "List a student's payments",
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Payments"}
                }
            }
        },
        "/api/v1/payments": {
            "post": {
                "tags": ["Payments"],
                "summary": "Record a payment",
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/api/v1/payments/{id}": {
            "put": {
                "tags": ["Payments"],
                "summary": "Replace a payment record",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Updated"}
                }
            },
            "delete": {
                "tags": ["Payments"],
                "summary": "Remove a payment record",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/api/v1/faculty/records": {
            "get": {
                "tags": ["Faculty"],
                "summary": "Merged student enrollment records",
                "parameters": [
                    {"name": "semester", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Records"}
                }
            }
        },
        "/api/v1/faculty/stats": {
            "get": {
                "tags": ["Faculty"],
                "summary": "Dashboard counters over the merged records",
                "responses": {
                    "200": {"description": "Stats"}
                }
            }
        },
        "/api/v1/faculty/approve/{studentId}": {
            "post": {
                "tags": ["Faculty"],
                "summary": "Approve a student's registration",
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Approved"}
                }
            }
        },
        "/api/v1/faculty/statistics": {
            "get": {
                "tags": ["Faculty"],
                "summary": "Registrar aggregate statistics",
                "responses": {
                    "200": {"description": "Statistics"}
                }
            }
        },
        "/api/v1/faculty/charts/{name}": {
            "get": {
                "tags": ["Faculty"],
                "summary": "Registrar chart data",
                "parameters": [
                    {"name": "name", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Chart data"}
                }
            }
        },
        "/api/v1/faculty/export": {
            "get": {
                "tags": ["Faculty"],
                "summary": "Export merged records as CSV or PDF",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "role": {"type": "string", "enum": ["student", "faculty", "admin"]}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"type": "object"},
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
