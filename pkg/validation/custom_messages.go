package validation

// CustomMessage returns the per-tag messages registered for a struct field,
// or nil when the field only uses the default wording.
func CustomMessage(field string) map[string]string {
	var customValidationMessages = map[string]map[string]string{
		"Email": {
			"required": "email is required",
			"email":    "email is not a valid address",
		},
		"Password": {
			"required": "password is required",
			"min":      "password must be at least 8 characters",
		},
		"NewPassword": {
			"required": "new_password is required",
			"min":      "new_password must be at least 8 characters",
		},
		"ConfirmPassword": {
			"required": "confirm_password is required",
		},
		"Name": {
			"required": "name is required",
		},
		"Surname": {
			"required": "surname is required",
		},
		"Type": {
			"required": "type is required",
			"oneof":    "type must be Arrival or Departure",
		},
		"Timestamp": {
			"required": "timestamp is required",
		},
		"UserID": {
			"gt": "id_user must be a positive id",
		},
	}
	return customValidationMessages[field]
}
