// Package docs holds the OpenAPI description served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/login": {
            "post": {
                "description": "Verifies the username (email) and password and returns a token valid for 15 days.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Authentication"],
                "summary": "Log in",
                "parameters": [
                    {
                        "description": "Credentials",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/dto.AuthenticationRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Authenticated",
                        "schema": {"$ref": "#/definitions/dto.AuthenticationResponse"},
                        "headers": {"Authorization": {"type": "string", "description": "JWT access token"}}
                    },
                    "400": {"description": "Invalid request parameters", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "401": {"description": "Bad credentials", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/customers": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns every registered customer.",
                "produces": ["application/json"],
                "tags": ["Customers"],
                "summary": "List customers",
                "responses": {
                    "200": {
                        "description": "Customers retrieved",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.CustomerDTO"}}
                    },
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "post": {
                "description": "Creates a customer and returns an access token in the Authorization header.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Customers"],
                "summary": "Register a new customer",
                "parameters": [
                    {
                        "description": "Customer registration request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/dto.CustomerRegistrationRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Customer registered; token in the Authorization header",
                        "headers": {"Authorization": {"type": "string", "description": "JWT access token"}}
                    },
                    "400": {"description": "Invalid request payload", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "409": {"description": "Email already taken", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/customers/{customerID}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Retrieves details for a specific customer by their ID.",
                "produces": ["application/json"],
                "tags": ["Customers"],
                "summary": "Retrieve customer details",
                "parameters": [
                    {"minimum": 1, "type": "integer", "description": "Customer ID", "name": "customerID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Customer details retrieved", "schema": {"$ref": "#/definitions/dto.CustomerDTO"}},
                    "400": {"description": "Invalid customer ID format", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "404": {"description": "Customer not found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "Applies the supplied name, email and age. Fields left out are unchanged.",
                "consumes": ["application/json"],
                "tags": ["Customers"],
                "summary": "Update a customer",
                "parameters": [
                    {"minimum": 1, "type": "integer", "description": "Customer ID", "name": "customerID", "in": "path", "required": true},
                    {
                        "description": "Fields to change",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/dto.CustomerUpdateRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "Customer updated"},
                    "400": {"description": "Invalid payload or no data changes found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "404": {"description": "Customer not found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "409": {"description": "Email already taken", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["Customers"],
                "summary": "Delete a customer",
                "parameters": [
                    {"minimum": 1, "type": "integer", "description": "Customer ID", "name": "customerID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Customer deleted"},
                    "400": {"description": "Invalid customer ID format", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "404": {"description": "Customer not found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "dto.AuthenticationRequest": {
            "type": "object",
            "required": ["password", "username"],
            "properties": {
                "password": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "dto.AuthenticationResponse": {
            "type": "object",
            "properties": {
                "customerDTO": {"$ref": "#/definitions/dto.CustomerDTO"},
                "token": {"type": "string"}
            }
        },
        "dto.CustomerDTO": {
            "type": "object",
            "properties": {
                "age": {"type": "integer"},
                "email": {"type": "string"},
                "gender": {"type": "string"},
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "roles": {"type": "array", "items": {"type": "string"}},
                "username": {"type": "string"}
            }
        },
        "dto.CustomerRegistrationRequest": {
            "type": "object",
            "required": ["email", "gender", "name", "password"],
            "properties": {
                "age": {"type": "integer", "maximum": 150, "minimum": 0},
                "email": {"type": "string", "maxLength": 255},
                "gender": {"type": "string"},
                "name": {"type": "string", "maxLength": 255},
                "password": {"type": "string", "maxLength": 72, "minLength": 1}
            }
        },
        "dto.CustomerUpdateRequest": {
            "type": "object",
            "properties": {
                "age": {"type": "integer", "maximum": 150, "minimum": 0},
                "email": {"type": "string", "maxLength": 255},
                "name": {"type": "string", "maxLength": 255, "minLength": 1}
            }
        },
        "dto.ErrorDetail": {
            "type": "object",
            "properties": {
                "field": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "dto.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/dto.ErrorDetail"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Customer API",
	Description:      "Customer registration, retrieval, update and deletion with JWT authentication.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
