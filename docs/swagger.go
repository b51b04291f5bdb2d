// Package docs registers the OpenAPI description served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Accounts", "description": "Sign-up, login, devices and notification history"},
        {"name": "Projects", "description": "Projects, invitations, membership and permissions"},
        {"name": "Tasks", "description": "Task lifecycle"},
        {"name": "Chat", "description": "Project chat"}
    ],
    "paths": {
        "/createUser": {"post": {"tags": ["Accounts"], "summary": "Register a user", "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/CreateUserRequest"}}], "responses": {"201": {"description": "uid of the new user"}, "409": {"description": "User already exists"}}}},
        "/login": {"post": {"tags": ["Accounts"], "summary": "Exchange credentials for a token", "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}], "responses": {"200": {"description": "token and uid"}, "401": {"description": "Invalid email or password"}}}},
        "/searchUser": {"post": {"tags": ["Accounts"], "summary": "Search users outside a project", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "matching users"}}}},
        "/registerDevice": {"post": {"tags": ["Accounts"], "summary": "Register a push device token", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Device registered"}}}},
        "/listUpdates": {"post": {"tags": ["Accounts"], "summary": "Notification history", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "updates, newest first"}}}},
        "/notifyUser": {"post": {"tags": ["Accounts"], "summary": "Notify a user", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Notification sent"}}}},
        "/deleteUser": {"post": {"tags": ["Accounts"], "summary": "Delete the caller's account", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "User deleted"}, "403": {"description": "Unauthorized"}}}},
        "/createProject": {"post": {"tags": ["Projects"], "summary": "Create a project", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "projectId"}}}},
        "/getProject": {"post": {"tags": ["Projects"], "summary": "Get a project", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "project"}}}},
        "/deleteProject": {"post": {"tags": ["Projects"], "summary": "Delete a project and everything under it", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Project deleted"}, "403": {"description": "Unauthorized"}}}},
        "/inviteUser": {"post": {"tags": ["Projects"], "summary": "Invite a user", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "User invited"}}}},
        "/acceptInvite": {"post": {"tags": ["Projects"], "summary": "Accept an invitation", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Invite accepted"}}}},
        "/declineInvite": {"post": {"tags": ["Projects"], "summary": "Decline an invitation", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Invite declined"}}}},
        "/listInvites": {"post": {"tags": ["Projects"], "summary": "Pending invitations", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "invites"}}}},
        "/removeFromProject": {"post": {"tags": ["Projects"], "summary": "Leave a project or remove a member", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "User removed from project"}}}},
        "/getPermissions": {"post": {"tags": ["Projects"], "summary": "Permission record of a member", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "permission flags"}}}},
        "/setPermissions": {"post": {"tags": ["Projects"], "summary": "Change permission flags", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Permissions updated"}}}},
        "/sendChatMessage": {"post": {"tags": ["Chat"], "summary": "Post a chat message", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Message sent"}}}},
        "/listChat": {"post": {"tags": ["Chat"], "summary": "Recent chat messages", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "messages, oldest first"}}}},
        "/createTask": {"post": {"tags": ["Tasks"], "summary": "Create a task", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "taskId"}}}},
        "/editTask": {"post": {"tags": ["Tasks"], "summary": "Edit a task", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Task edited"}}}},
        "/deleteTask": {"post": {"tags": ["Tasks"], "summary": "Delete a task", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Task deleted"}}}},
        "/assignTask": {"post": {"tags": ["Tasks"], "summary": "Notify an assignee", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Task assigned"}}}},
        "/updateTask": {"post": {"tags": ["Tasks"], "summary": "Notify the assignee of an update", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Task updated"}}}},
        "/sendTaskToReview": {"post": {"tags": ["Tasks"], "summary": "Notify reviewers", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Task sent for review"}}}},
        "/approveTask": {"post": {"tags": ["Tasks"], "summary": "Approve a task", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Task approved"}}}},
        "/getUserTasks": {"post": {"tags": ["Tasks"], "summary": "Paths of the caller's tasks", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "tasks"}}}},
        "/listTasks": {"post": {"tags": ["Tasks"], "summary": "Tasks of a project", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "tasks, oldest first"}, "403": {"description": "Not a member"}}}},
        "/getTask": {"post": {"tags": ["Tasks"], "summary": "Get a task", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "task"}, "404": {"description": "Task not found"}}}},
        "/ws": {"get": {"tags": ["Accounts"], "summary": "Push channel for the caller's registered device", "security": [{"BearerAuth": []}], "parameters": [{"in": "query", "name": "token", "type": "string", "required": true}], "responses": {"101": {"description": "Switching protocols"}, "403": {"description": "Token is not registered to the caller"}}}}
    },
    "definitions": {
        "CreateUserRequest": {
            "type": "object",
            "required": ["name", "email", "password"],
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "phone": {"type": "string"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Collabolab API",
	Description:      "Collaborative projects, invitations, tasks and chat.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
