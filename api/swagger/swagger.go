package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Education Workflow API",
        "description": "Multi-party workflow core for education programs, instructor assignment, attendance and settlement",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Educations", "description": "Education lifecycle and activation scheduling"},
        {"name": "Assignments", "description": "Instructor ↔ lesson bindings"},
        {"name": "Applications", "description": "Instructor applications and decisions"},
        {"name": "Attendance", "description": "Attendance sheet hand-over workflow"},
        {"name": "Fees", "description": "Fee policy evaluation"},
        {"name": "Settlements", "description": "Monthly settlement statement exports"}
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
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/api/v1/educations": {
            "get": {
                "tags": ["Educations"],
                "summary": "List educations",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "region", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Educations"],
                "summary": "Register an education with its lesson plan",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateEducationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/educations/{id}": {
            "get": {
                "tags": ["Educations"],
                "summary": "Education detail with lessons and derived assignment status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/api/v1/educations/{id}/transition": {
            "post": {
                "tags": ["Educations"],
                "summary": "Move an education to an explicit status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TransitionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid transition"}
                }
            }
        },
        "/api/v1/educations/{id}/advance": {
            "post": {
                "tags": ["Educations"],
                "summary": "Advance an education to its next lifecycle status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/educations/{id}/activation": {
            "post": {
                "tags": ["Educations"],
                "summary": "Schedule automatic open/close of the application window",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScheduleActivationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/educations/{id}/fee": {
            "get": {
                "tags": ["Fees"],
                "summary": "Fee breakdown of one education",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "mode", "in": "query", "type": "string", "enum": ["STATUS_BASED", "ASSIGNMENT_BASED"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/educations/{id}/assignments": {
            "get": {
                "tags": ["Assignments"],
                "summary": "Assignment overview of one education",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Assignments"],
                "summary": "Bind an instructor to lesson sessions",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignInstructorRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Monthly capacity exceeded"}
                }
            },
            "delete": {
                "tags": ["Assignments"],
                "summary": "Remove an instructor binding",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RemoveInstructorRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Not assigned"}
                }
            }
        },
        "/api/v1/educations/{id}/assignments/confirm": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Confirm a pending instructor binding",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ConfirmInstructorRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Monthly capacity exceeded"}
                }
            }
        },
        "/api/v1/instructors/{id}/assignments": {
            "get": {
                "tags": ["Assignments"],
                "summary": "Bindings of one instructor across educations",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/applications": {
            "get": {
                "tags": ["Applications"],
                "summary": "List applications with derived final status",
                "parameters": [
                    {"name": "educationId", "in": "query", "type": "string"},
                    {"name": "instructorId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Applications"],
                "summary": "Apply to teach an education",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateApplicationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Window closed or duplicate application"}
                }
            }
        },
        "/api/v1/applications/{id}/decision": {
            "post": {
                "tags": ["Applications"],
                "summary": "Accept or reject an application",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DecideApplicationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/attendance/open": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Open (or fetch) the sheet for a class",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OpenAttendanceRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/attendance/{id}": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Sheet with students and transition history",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/attendance/{id}/students": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Append a student row to a draft sheet",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddStudentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Sheet not editable"}
                }
            }
        },
        "/api/v1/attendance/{id}/ready": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Mark a sheet complete on the teacher's side",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/attendance/{id}/request": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Instructor requests the prepared sheet",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/attendance/{id}/send": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Hand a requested sheet over to the instructor",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/attendance/{id}/return": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Return a sheet to the teacher for correction",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/attendance/{id}/finalize": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Finalize a sheet held by the instructor",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/attendance/{id}/roster": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Download the finalized sheet as a PDF roster",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF file"},
                    "409": {"description": "Sheet not finalized"}
                }
            }
        },
        "/api/v1/settlements": {
            "post": {
                "tags": ["Settlements"],
                "summary": "Queue a monthly settlement statement export",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSettlementRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/settlements/{id}": {
            "get": {
                "tags": ["Settlements"],
                "summary": "Poll a settlement job",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/settlements/{id}/download": {
            "get": {
                "tags": ["Settlements"],
                "summary": "Download a finished settlement statement",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Statement file"},
                    "403": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "definitions": {
        "CreateEducationRequest": {
            "type": "object",
            "required": ["name", "institution", "region", "periodStart", "periodEnd", "lessons"],
            "properties": {
                "name": {"type": "string"},
                "institution": {"type": "string"},
                "region": {"type": "string"},
                "gradeClass": {"type": "string"},
                "periodStart": {"type": "string", "format": "date-time"},
                "periodEnd": {"type": "string", "format": "date-time"},
                "applicationRestriction": {"type": "string", "enum": ["ALL", "MAIN_ONLY", "ASSISTANT_ONLY"]},
                "lessons": {"type": "array", "items": {"$ref": "#/definitions/LessonPlanRequest"}}
            }
        },
        "LessonPlanRequest": {
            "type": "object",
            "required": ["session", "date", "startTime", "endTime"],
            "properties": {
                "session": {"type": "integer"},
                "date": {"type": "string", "format": "date-time"},
                "startTime": {"type": "string"},
                "endTime": {"type": "string"},
                "mainInstructorRequired": {"type": "integer"},
                "assistantInstructorRequired": {"type": "integer"}
            }
        },
        "TransitionRequest": {
            "type": "object",
            "required": ["targetStatus"],
            "properties": {
                "targetStatus": {"type": "string"}
            }
        },
        "ScheduleActivationRequest": {
            "type": "object",
            "properties": {
                "openAt": {"type": "string", "format": "date-time"},
                "closeAt": {"type": "string", "format": "date-time"},
                "applicationRestriction": {"type": "string"}
            }
        },
        "AssignInstructorRequest": {
            "type": "object",
            "required": ["instructorId", "role", "mode"],
            "properties": {
                "instructorId": {"type": "string"},
                "role": {"type": "string", "enum": ["MAIN", "ASSISTANT"]},
                "mode": {"type": "string", "enum": ["FULL", "PARTIAL"]},
                "sessions": {"type": "array", "items": {"type": "integer"}}
            }
        },
        "ConfirmInstructorRequest": {
            "type": "object",
            "required": ["instructorId", "session"],
            "properties": {
                "instructorId": {"type": "string"},
                "session": {"type": "integer"}
            }
        },
        "RemoveInstructorRequest": {
            "type": "object",
            "required": ["instructorId", "session"],
            "properties": {
                "instructorId": {"type": "string"},
                "session": {"type": "integer"}
            }
        },
        "CreateApplicationRequest": {
            "type": "object",
            "required": ["educationId", "role"],
            "properties": {
                "educationId": {"type": "string"},
                "role": {"type": "string", "enum": ["MAIN", "ASSISTANT"]}
            }
        },
        "DecideApplicationRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["ACCEPTED", "REJECTED"]}
            }
        },
        "OpenAttendanceRequest": {
            "type": "object",
            "required": ["educationId", "grade", "className"],
            "properties": {
                "educationId": {"type": "string"},
                "grade": {"type": "string"},
                "className": {"type": "string"},
                "teacherName": {"type": "string"}
            }
        },
        "AddStudentRequest": {
            "type": "object",
            "required": ["number", "name"],
            "properties": {
                "number": {"type": "integer"},
                "name": {"type": "string"},
                "note": {"type": "string"}
            }
        },
        "CreateSettlementRequest": {
            "type": "object",
            "required": ["month", "format"],
            "properties": {
                "month": {"type": "string", "example": "2026-09"},
                "region": {"type": "string"},
                "format": {"type": "string", "enum": ["csv", "pdf"]}
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
                "status": {"type": "integer"},
                "details": {"type": "object"}
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
