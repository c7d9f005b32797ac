// Package validator provides rule-based input validation with field-level
// error reporting.
//
// Each rule is a closure over the value being checked plus the field name to
// report on failure. Apply runs all rules and collects every failure, so a
// caller gets the complete set of problems in one pass instead of the first
// one only.
//
// # Usage
//
//	err := validator.Apply(
//	    validator.RequiredString("name", req.Name),
//	    validator.ValidEmail("email", req.Email),
//	    validator.ValidPhone("phone", req.Phone),
//	)
//	if err != nil {
//	    ve := validator.ExtractValidationErrors(err)
//	    // ve.Fields(), ve.Get("email"), ...
//	}
package validator
