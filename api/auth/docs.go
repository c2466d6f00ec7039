// Package auth registers the OpenAPI document served under /swagger/.
// Regenerate with: swag init -g internal/auth/http/router.go -o api/auth
package auth

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "AussieBroadWAN Team",
            "url": "https://github.com/aussiebroadwan/sessiond"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/livez": {
            "get": {
                "tags": ["Health"],
                "summary": "Health Check Endpoint",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "status, uptime, version", "schema": {"$ref": "#/definitions/authsdk.HealthResponse"}}
                }
            }
        },
        "/readyz": {
            "get": {
                "tags": ["Health"],
                "summary": "Readiness Check Endpoint",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "status, uptime, version, checks", "schema": {"$ref": "#/definitions/authsdk.HealthResponse"}},
                    "503": {"description": "service not ready", "schema": {"$ref": "#/definitions/authsdk.HealthResponse"}}
                }
            }
        },
        "/v1/auth/login": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Log in",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/authsdk.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/authsdk.AuthResponse"}},
                    "400": {"description": "invalid_request, invalid_audience", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "401": {"description": "invalid_credentials", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "404": {"description": "device_not_found", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "409": {"description": "device_limit_exceeded", "schema": {"$ref": "#/definitions/authsdk.DeviceLimitResponse"}},
                    "429": {"description": "too_many_attempts", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}, "headers": {"Retry-After": {"type": "string"}}}
                }
            }
        },
        "/v1/auth/refresh": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Rotate a refresh token",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/authsdk.RefreshRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/authsdk.AuthResponse"}},
                    "400": {"description": "invalid_request", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "401": {"description": "invalid_token", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}}
                }
            }
        },
        "/v1/auth/logout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Sessions"],
                "summary": "Log out",
                "consumes": ["application/json"],
                "parameters": [
                    {"name": "request", "in": "body", "schema": {"$ref": "#/definitions/authsdk.LogoutRequest"}}
                ],
                "responses": {
                    "204": {"description": "Logged out"},
                    "401": {"description": "invalid_token", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}}
                }
            }
        },
        "/v1/auth/validate": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Validate a token",
                "consumes": ["text/plain"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "token", "in": "body", "required": true, "schema": {"type": "string"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/authsdk.ValidateResponse"}},
                    "400": {"description": "invalid_request", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}}
                }
            }
        },
        "/v1/auth/devices": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Devices"],
                "summary": "List devices",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/authsdk.DevicesResponse"}},
                    "401": {"description": "invalid_token", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}}
                }
            }
        },
        "/v1/auth/devices/{deviceId}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["Devices"],
                "summary": "Remove a device",
                "parameters": [
                    {"type": "string", "name": "deviceId", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "Device signed out"},
                    "401": {"description": "invalid_token", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "404": {"description": "device_not_found", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}}
                }
            }
        },
        "/v1/auth/revoke/{userId}": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "Revoke all tokens of a user",
                "parameters": [
                    {"type": "string", "name": "userId", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "Tokens revoked"},
                    "401": {"description": "invalid_token", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "403": {"description": "forbidden", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}}
                }
            }
        },
        "/v1/auth/cleanup": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "Delete expired tokens",
                "responses": {
                    "204": {"description": "Cleanup finished"},
                    "401": {"description": "invalid_token", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "403": {"description": "forbidden", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "authsdk.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "error_description": {"type": "string"}
            }
        },
        "authsdk.DeviceJSON": {
            "type": "object",
            "properties": {
                "device_id": {"type": "string"},
                "device_name": {"type": "string"},
                "login_date": {"type": "string", "format": "date-time"},
                "last_activity": {"type": "string", "format": "date-time"},
                "current": {"type": "boolean"}
            }
        },
        "authsdk.DeviceLimitResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "error_description": {"type": "string"},
                "max_devices": {"type": "integer"},
                "active_devices": {"type": "array", "items": {"$ref": "#/definitions/authsdk.DeviceJSON"}}
            }
        },
        "authsdk.DevicesResponse": {
            "type": "object",
            "properties": {
                "max_devices": {"type": "integer"},
                "active_devices": {"type": "array", "items": {"$ref": "#/definitions/authsdk.DeviceJSON"}}
            }
        },
        "authsdk.LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "device_id_to_revoke": {"type": "string"},
                "client_id": {"type": "string"},
                "device_name": {"type": "string"}
            }
        },
        "authsdk.RefreshRequest": {
            "type": "object",
            "properties": {
                "refresh_token": {"type": "string"}
            }
        },
        "authsdk.LogoutRequest": {
            "type": "object",
            "properties": {
                "refresh_token": {"type": "string"},
                "logout_all_devices": {"type": "boolean"}
            }
        },
        "authsdk.TokenJSON": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "type": {"type": "string"},
                "expires_at": {"type": "string", "format": "date-time"},
                "created_at": {"type": "string", "format": "date-time"},
                "is_expired": {"type": "boolean"}
            }
        },
        "authsdk.UserJSON": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "email": {"type": "string"},
                "display_name": {"type": "string"},
                "role": {"type": "string"}
            }
        },
        "authsdk.AuthResponse": {
            "type": "object",
            "properties": {
                "user": {"$ref": "#/definitions/authsdk.UserJSON"},
                "access_token": {"$ref": "#/definitions/authsdk.TokenJSON"},
                "refresh_token": {"$ref": "#/definitions/authsdk.TokenJSON"},
                "authenticated_at": {"type": "string", "format": "date-time"},
                "expires_in": {"type": "integer"}
            }
        },
        "authsdk.ValidateResponse": {
            "type": "object",
            "properties": {
                "valid": {"type": "boolean"}
            }
        },
        "authsdk.HealthChecks": {
            "type": "object",
            "properties": {
                "database": {"type": "string"}
            }
        },
        "authsdk.HealthResponse": {
            "type": "object",
            "properties": {
                "service": {"type": "string"},
                "status": {"type": "string"},
                "uptime": {"type": "string"},
                "version": {"type": "string"},
                "checks": {"$ref": "#/definitions/authsdk.HealthChecks"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "JWT access token. Format: \"Bearer {token}\".",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "sessiond Session Service API",
	Description:      "Login, refresh rotation, logout and device management for user sessions.\n\nAccess tokens are HS256 JWTs. Refresh tokens are opaque and single use.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
