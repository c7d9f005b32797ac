// Package sanitizer normalizes raw user input before validation and storage.
//
// Sanitizers never fail; they transform a string into its canonical form and
// leave semantic checks to the validator package. Typical pipeline:
//
//	email := sanitizer.NormalizeEmail(req.Email)
//	phone := sanitizer.NormalizePhone(req.Phone)
//	if err := validator.Apply(validator.ValidEmail("email", email)); err != nil { ... }
package sanitizer
