package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "MOU Registry API",
        "description": "University international relations MOU registry and multi-stage approval workflow",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login, registration and account claiming"},
        {"name": "MOU", "description": "Submissions and the approval workflow"},
        {"name": "Users", "description": "Account management"},
        {"name": "Organizations", "description": "Partner organization directory"},
        {"name": "Notifications", "description": "Decision and expiry notifications"},
        {"name": "Analytics", "description": "Register aggregates"},
        {"name": "Reports", "description": "Register exports"}
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
        "/auth/signup": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register a new account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SignupRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/set-password": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Claim a provisioned account",
                "responses": {
                    "204": {"description": "Password set"},
                    "404": {"description": "Unknown email"}
                }
            }
        },
        "/mous": {
            "get": {
                "tags": ["MOU"],
                "summary": "List submissions visible to the caller",
                "parameters": [
                    {"name": "organizationId", "in": "query", "type": "string"},
                    {"name": "expiringWithinDays", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["MOU"],
                "summary": "Submit a new MOU",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitMOURequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/mous/expiring": {
            "get": {
                "tags": ["MOU"],
                "summary": "Submissions nearing their validity end",
                "parameters": [
                    {"name": "days", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/mous/by-organization": {
            "get": {
                "tags": ["MOU"],
                "summary": "Submissions linked to a partner organization",
                "parameters": [
                    {"name": "orgId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/mous/pending": {
            "get": {
                "tags": ["MOU"],
                "summary": "Submissions awaiting the caller's stage",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Caller is not a workflow admin"}
                }
            }
        },
        "/mous/{id}": {
            "get": {
                "tags": ["MOU"],
                "summary": "Get a submission by ID",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/mous/{id}/approve": {
            "post": {
                "tags": ["MOU"],
                "summary": "Approve a submission stage",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/DecisionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Earlier stages pending or wrong stage for role"},
                    "409": {"description": "Already approved or concurrent modification"}
                }
            }
        },
        "/mous/{id}/reject": {
            "post": {
                "tags": ["MOU"],
                "summary": "Reject a submission stage",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/DecisionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/mous/{id}/renew": {
            "post": {
                "tags": ["MOU"],
                "summary": "Renew a submission",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RenewMOURequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/analytics": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Registry dashboard aggregates",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List notifications for the caller",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Notifications"],
                "summary": "Remove all notifications for the caller",
                "responses": {
                    "204": {"description": "Cleared"}
                }
            }
        },
        "/notifications/notify": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Raise an expiry reminder for a submission",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/NotifyExpiryRequest"}}
                ],
                "responses": {
                    "204": {"description": "Reminder raised"}
                }
            }
        },
        "/notifications/scan": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Run the expiry scan immediately",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/organizations": {
            "get": {
                "tags": ["Organizations"],
                "summary": "List partner organizations",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/register": {
            "post": {
                "tags": ["Reports"],
                "summary": "Export the MOU register",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterExportRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
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
                "password": {"type": "string"}
            }
        },
        "SignupRequest": {
            "type": "object",
            "required": ["name", "email", "password"],
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "department": {"type": "string"}
            }
        },
        "SubmitMOURequest": {
            "type": "object",
            "required": ["title", "partner_organization", "purpose", "valid_until"],
            "properties": {
                "title": {"type": "string"},
                "partner_organization": {"type": "string"},
                "purpose": {"type": "string"},
                "description": {"type": "string"},
                "dates_signed": {"type": "string", "format": "date-time"},
                "valid_until": {"type": "string", "format": "date-time"},
                "justification": {"type": "string"},
                "additional_docs": {"type": "array", "items": {"type": "string"}}
            }
        },
        "RenewMOURequest": {
            "type": "object",
            "required": ["valid_until"],
            "properties": {
                "dates_signed": {"type": "string", "format": "date-time"},
                "valid_until": {"type": "string", "format": "date-time"}
            }
        },
        "DecisionRequest": {
            "type": "object",
            "properties": {
                "stage": {"type": "string", "enum": ["legal", "faculty", "senate", "ugc"]}
            }
        },
        "NotifyExpiryRequest": {
            "type": "object",
            "required": ["mouId"],
            "properties": {
                "mouId": {"type": "string"}
            }
        },
        "RegisterExportRequest": {
            "type": "object",
            "required": ["format"],
            "properties": {
                "format": {"type": "string", "enum": ["csv", "pdf"]},
                "organization_id": {"type": "string"}
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
