// Package registration exposes the signup pipeline over HTTP. The student
// flow mounts under /register, the college-admin flow under
// /register/admin; both share the same handler set and differ only in the
// service instance behind them.
package registration

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	reg "github.com/dmitrymomot/enrollkit/svc/registration"
)

// Routes holds the two flow services and the logger handlers report with.
type Routes struct {
	Student *reg.Service
	Admin   *reg.Service
	Log     *slog.Logger
}

// Mount attaches the registration endpoints to the router.
//
// Student flow:
//
//	POST /register/step1         identity + contact fields
//	POST /register/step2         college selection, issues codes
//	POST /register/step3         code verification, finalizes
//	POST /register/resend-codes  reissue codes (cooldown enforced)
//	POST /register/resume        trade a stale token for the current state
//
// Admin flow adds a profile step and a skippable token-grant step, so
// verification shifts to step5.
func (rt Routes) Mount(r chi.Router) {
	student := &handlers{svc: rt.Student, log: rt.Log}
	admin := &handlers{svc: rt.Admin, log: rt.Log}

	r.Route("/register", func(r chi.Router) {
		r.Post("/step1", student.begin)
		r.Post("/step2", student.selectCollege)
		r.Post("/step3", student.verify)
		r.Post("/resend-codes", student.resendCodes)
		r.Post("/resume", student.resume)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/step1", admin.begin)
			r.Post("/step2", admin.selectCollege)
			r.Post("/step3", admin.submitProfile)
			r.Post("/step4", admin.configureTokenGrant)
			r.Post("/step5", admin.verify)
			r.Post("/resend-codes", admin.resendCodes)
			r.Post("/resume", admin.resume)
		})
	})
}
