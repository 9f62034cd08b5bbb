package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Study Buddy API",
        "description": "Study partner matching for university courses",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Sign-in, token refresh and session management"},
        {"name": "Catalog", "description": "Course reference catalog"},
        {"name": "Courses", "description": "Course enrollment"},
        {"name": "Matches", "description": "Study partner matching"},
        {"name": "Messages", "description": "Course chat and direct messages"}
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Sign in with a verified identity assertion",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Email outside the allowed domain"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Exchange a refresh token for a new token pair",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "Revoke the caller's refresh token",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Return the authenticated user's profile",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/catalog": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List catalog courses for selection",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/catalog/search": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Search catalog courses by code or title",
                "parameters": [
                    {"name": "q", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses": {
            "get": {
                "tags": ["Courses"],
                "summary": "List the caller's enrolled courses",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "code", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Courses"],
                "summary": "Enroll in a catalog course",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EnrollRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Course not in catalog"},
                    "409": {"description": "Already enrolled"},
                    "503": {"description": "Catalog unavailable"}
                }
            }
        },
        "/courses/{id}": {
            "delete": {
                "tags": ["Courses"],
                "summary": "Leave a course",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/courses/{id}/users": {
            "get": {
                "tags": ["Courses"],
                "summary": "List users enrolled in a course",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{id}/messages": {
            "get": {
                "tags": ["Messages"],
                "summary": "List a course room's messages",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not enrolled"}
                }
            },
            "post": {
                "tags": ["Messages"],
                "summary": "Post a message to a course room",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CourseMessageRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not enrolled"}
                }
            }
        },
        "/matches": {
            "get": {
                "tags": ["Matches"],
                "summary": "List the caller's matches",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Matches"],
                "summary": "Request a study match",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MatchRequest"}}
                ],
                "responses": {
                    "200": {"description": "Existing match returned unchanged", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "201": {"description": "New pending match created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Matches"],
                "summary": "Withdraw a pending match request",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "course_id", "in": "query", "required": true, "type": "string"},
                    {"name": "target_net_id", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "No pending request to withdraw"}
                }
            }
        },
        "/matches/{id}": {
            "patch": {
                "tags": ["Matches"],
                "summary": "Accept or reject a pending match",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RespondRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not a participant"},
                    "409": {"description": "Match already decided"}
                }
            }
        },
        "/dm": {
            "get": {
                "tags": ["Messages"],
                "summary": "Load the direct-message thread with another user",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "to_net_id", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Messages"],
                "summary": "Send a direct message",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DirectMessageRequest"}}
                ],
                "responses": {
                    "201": {"description": "The refreshed conversation", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "full_name": {"type": "string"},
                "net_id": {"type": "string"},
                "phone_number": {"type": "string"}
            },
            "required": ["email", "full_name", "net_id"]
        },
        "RefreshTokenRequest": {
            "type": "object",
            "properties": {
                "refresh_token": {"type": "string"}
            },
            "required": ["refresh_token"]
        },
        "EnrollRequest": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "name": {"type": "string"}
            },
            "required": ["code", "name"]
        },
        "MatchRequest": {
            "type": "object",
            "properties": {
                "course_id": {"type": "string"},
                "target_net_id": {"type": "string"}
            },
            "required": ["course_id", "target_net_id"]
        },
        "RespondRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["accepted", "rejected"]}
            },
            "required": ["status"]
        },
        "CourseMessageRequest": {
            "type": "object",
            "properties": {
                "content": {"type": "string"}
            },
            "required": ["content"]
        },
        "DirectMessageRequest": {
            "type": "object",
            "properties": {
                "to_net_id": {"type": "string"},
                "content": {"type": "string"}
            },
            "required": ["to_net_id", "content"]
        },
        "Course": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "code": {"type": "string"},
                "name": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "MatchView": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "course": {"$ref": "#/definitions/MatchCourseView"},
                "user": {"$ref": "#/definitions/MatchUserView"},
                "status": {"type": "string"}
            }
        },
        "MatchCourseView": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "code": {"type": "string"},
                "name": {"type": "string"}
            }
        },
        "MatchUserView": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "net_id": {"type": "string"}
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
