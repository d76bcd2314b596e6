package dto

// OpenAttendanceRequest opens (or returns) the sheet for a class. Repeated
// calls with the same education/grade/class land on the same sheet.
type OpenAttendanceRequest struct {
	EducationID string `json:"educationId" validate:"required"`
	Grade       string `json:"grade" validate:"required"`
	ClassName   string `json:"className" validate:"required"`
	TeacherName string `json:"teacherName"`
}

// AddStudentRequest appends one student row to a draft sheet.
type AddStudentRequest struct {
	Number int    `json:"number" validate:"required,min=1"`
	Name   string `json:"name" validate:"required"`
	Note   string `json:"note"`
}
