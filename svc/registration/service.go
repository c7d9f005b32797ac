package registration

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/enrollkit/pkg/logger"
	"github.com/dmitrymomot/enrollkit/pkg/notifier"
	"github.com/dmitrymomot/enrollkit/pkg/sanitizer"
	"github.com/dmitrymomot/enrollkit/pkg/stepflow"
	"github.com/dmitrymomot/enrollkit/pkg/temptoken"
	"github.com/dmitrymomot/enrollkit/pkg/validator"
)

// Config tunes the registration pipeline.
type Config struct {
	TokenSecret string        `env:"REGISTRATION_TOKEN_SECRET,required"`
	SessionTTL  time.Duration `env:"REGISTRATION_SESSION_TTL" envDefault:"45m"`
}

// Dependencies are the external collaborators a Service needs.
type Dependencies struct {
	Sessions SessionStore
	Codes    *CodeService
	Accounts AccountStorage
	Issuer   TokenIssuer
	Email    notifier.EmailSender
	SMS      notifier.SMSSender
}

// Service drives one registration flow. Instantiate one per flow; the
// student and admin services share the same stores and differ only in
// their step machine and the role they assign on finalization.
type Service struct {
	flow   *stepflow.Flow
	role   string
	codec  *temptoken.Codec
	ttl    time.Duration
	hasher PasswordHasher
	log    *slog.Logger

	sessions SessionStore
	codes    *CodeService
	accounts AccountStorage
	issuer   TokenIssuer
	email    notifier.EmailSender
	sms      notifier.SMSSender
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithPasswordHasher replaces the default bcrypt hasher.
func WithPasswordHasher(h PasswordHasher) Option {
	return func(s *Service) { s.hasher = h }
}

// NewStudentService builds the service for the student signup flow.
func NewStudentService(cfg Config, deps Dependencies, opts ...Option) (*Service, error) {
	return newService(StudentFlow, RoleStudent, cfg, deps, opts...)
}

// NewAdminService builds the service for the college-admin signup flow.
func NewAdminService(cfg Config, deps Dependencies, opts ...Option) (*Service, error) {
	return newService(AdminFlow, RoleCollegeAdmin, cfg, deps, opts...)
}

func newService(flow *stepflow.Flow, role string, cfg Config, deps Dependencies, opts ...Option) (*Service, error) {
	if deps.Sessions == nil || deps.Codes == nil || deps.Accounts == nil ||
		deps.Issuer == nil || deps.Email == nil || deps.SMS == nil {
		return nil, ErrMissingDependency
	}
	codec, err := temptoken.New(cfg.TokenSecret)
	if err != nil {
		return nil, err
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 45 * time.Minute
	}
	s := &Service{
		flow:     flow,
		role:     role,
		codec:    codec,
		ttl:      cfg.SessionTTL,
		hasher:   NewBcryptHasher(0),
		log:      slog.Default(),
		sessions: deps.Sessions,
		codes:    deps.Codes,
		accounts: deps.Accounts,
		issuer:   deps.Issuer,
		email:    deps.Email,
		sms:      deps.SMS,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("registration." + flow.Name()))
	return s, nil
}

// Flow exposes the step machine, mainly for handlers and tests.
func (s *Service) Flow() *stepflow.Flow { return s.flow }

// StepResult is returned by every non-final step: the fresh temp token,
// the step the session is now in, and the absolute session deadline.
type StepResult struct {
	Token     string        `json:"token"`
	Step      stepflow.Step `json:"step"`
	ExpiresAt time.Time     `json:"expires_at"`
}

func (s *Service) stepResult(sess *Session) (*StepResult, error) {
	token, err := s.codec.Mint(sess.ID, sess.CurrentStep.String(), sess.Version, sess.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &StepResult{Token: token, Step: sess.CurrentStep, ExpiresAt: sess.ExpiresAt}, nil
}

// loadSession parses the temp token and returns the matching session,
// rejecting stale tokens whose version or step lags the stored state.
func (s *Service) loadSession(ctx context.Context, rawToken string) (*Session, error) {
	claims, err := s.codec.Parse(rawToken)
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if sess.Flow != s.flow.Name() {
		return nil, ErrFlowMismatch
	}
	if claims.Version != sess.Version || stepflow.Step(claims.Step) != sess.CurrentStep {
		return nil, ErrVersionConflict
	}
	return sess, nil
}

// BeginInput is the identity payload of the first step.
type BeginInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// Begin creates a session from the identity step. No account exists yet
// and email uniqueness is deliberately not checked here; duplicates
// surface only at finalization.
func (s *Service) Begin(ctx context.Context, in BeginInput) (*StepResult, error) {
	name := sanitizer.SingleLine(in.Name)
	email := sanitizer.NormalizeEmail(in.Email)
	phone := sanitizer.NormalizePhone(sanitizer.Trim(in.Phone))

	if err := validator.Apply(
		validator.RequiredString("name", name),
		validator.MaxLenString("name", name, 100),
		validator.ValidEmail("email", email),
		validator.ValidPhone("phone", phone),
		validator.StrongPassword("password", in.Password, validator.DefaultPasswordStrength()),
	); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sess := &Session{
		ID:          uuid.NewString(),
		Flow:        s.flow.Name(),
		CurrentStep: s.flow.First(),
		Version:     0,
		Data: map[string]string{
			DataName:         name,
			DataEmail:        email,
			DataPhone:        phone,
			DataPasswordHash: hash,
			DataRole:         s.role,
		},
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "registration session created",
		logger.SessionID(sess.ID),
		slog.String("email", sanitizer.MaskEmail(email)),
	)
	return s.stepResult(sess)
}

// CollegeInput selects an existing college by id or names a new one.
type CollegeInput struct {
	CollegeID   string
	CollegeName string
}

// SelectCollege records the college choice. For the student flow this is
// the last data step, so it also issues verification codes and moves the
// session into verification.
func (s *Service) SelectCollege(ctx context.Context, rawToken string, in CollegeInput) (*StepResult, error) {
	sess, err := s.loadSession(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	collegeID := sanitizer.Trim(in.CollegeID)
	collegeName := sanitizer.SingleLine(in.CollegeName)

	patch := map[string]string{}
	switch {
	case collegeID != "":
		id, parseErr := uuid.Parse(collegeID)
		if parseErr != nil {
			return nil, validator.ValidationErrors{{Field: "collegeId", Message: "must be a valid college id"}}
		}
		if _, err := s.accounts.GetCollege(ctx, id); err != nil {
			if err == ErrCollegeNotFound {
				return nil, validator.ValidationErrors{{Field: "collegeId", Message: "college not found"}}
			}
			return nil, err
		}
		patch[DataCollegeID] = id.String()
	case collegeName != "":
		if err := validator.Apply(
			validator.MaxLenString("collegeName", collegeName, 150),
		); err != nil {
			return nil, err
		}
		patch[DataCollegeName] = collegeName
	default:
		return nil, validator.ValidationErrors{{Field: "collegeId", Message: "either collegeId or collegeName is required"}}
	}

	updated, err := s.advance(ctx, sess, StepInitiated, patch)
	if err != nil {
		return nil, err
	}
	updated, err = s.maybeEnterVerification(ctx, updated)
	if err != nil {
		return nil, err
	}
	return s.stepResult(updated)
}

// ProfileInput is the admin staff profile step.
type ProfileInput struct {
	Position   string
	Department string
}

// SubmitProfile records the staff profile. Admin flow only.
func (s *Service) SubmitProfile(ctx context.Context, rawToken string, in ProfileInput) (*StepResult, error) {
	if !s.flow.Contains(StepProfileCompleted) {
		return nil, ErrUnsupportedStep
	}
	sess, err := s.loadSession(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	position := sanitizer.SingleLine(in.Position)
	department := sanitizer.SingleLine(in.Department)
	if err := validator.Apply(
		validator.RequiredString("position", position),
		validator.MaxLenString("position", position, 100),
		validator.MaxLenString("department", department, 100),
	); err != nil {
		return nil, err
	}

	patch := map[string]string{DataPosition: position}
	if department != "" {
		patch[DataDepartment] = department
	}
	updated, err := s.advance(ctx, sess, StepCollegeSelected, patch)
	if err != nil {
		return nil, err
	}
	return s.stepResult(updated)
}

// TokenGrantInput configures the optional token grant. Skip bypasses the
// step entirely.
type TokenGrantInput struct {
	Skip       bool
	Symbol     string
	Allocation string
}

var tokenSymbolRegex = regexp.MustCompile(`^[A-Z]{2,8}$`)

// ConfigureTokenGrant records or skips the token-grant configuration.
// Admin flow only. This is the last data step of that flow, so on success
// it issues verification codes and moves the session into verification.
func (s *Service) ConfigureTokenGrant(ctx context.Context, rawToken string, in TokenGrantInput) (*StepResult, error) {
	if !s.flow.Contains(StepTokenConfigured) {
		return nil, ErrUnsupportedStep
	}
	sess, err := s.loadSession(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	patch := map[string]string{}
	if in.Skip {
		patch[DataTokenSkipped] = "true"
	} else {
		symbol := sanitizer.Trim(in.Symbol)
		allocation := sanitizer.Trim(in.Allocation)
		if err := validator.Apply(
			validator.Rule{
				Check: func() bool { return tokenSymbolRegex.MatchString(symbol) },
				Error: validator.ValidationError{Field: "tokenSymbol", Message: "must be 2 to 8 uppercase letters"},
			},
			validator.ValidNumericString("tokenAllocation", allocation),
			validator.Rule{
				Check: func() bool {
					n, convErr := strconv.ParseInt(allocation, 10, 64)
					return convErr == nil && n > 0
				},
				Error: validator.ValidationError{Field: "tokenAllocation", Message: "must be a positive number"},
			},
		); err != nil {
			return nil, err
		}
		patch[DataTokenSymbol] = symbol
		patch[DataTokenAllocation] = allocation
	}

	updated, err := s.advance(ctx, sess, StepProfileCompleted, patch)
	if err != nil {
		return nil, err
	}
	updated, err = s.maybeEnterVerification(ctx, updated)
	if err != nil {
		return nil, err
	}
	return s.stepResult(updated)
}

// ResendCodes reissues verification codes on both channels, honoring the
// per-channel cooldown. It also serves as the recovery path when delivery
// failed on verification entry: from the last data step it issues the
// codes and advances into verification.
func (s *Service) ResendCodes(ctx context.Context, rawToken string) (*StepResult, error) {
	sess, err := s.loadSession(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	if sess.CurrentStep == StepVerificationPending {
		if err := s.issueAndSend(ctx, sess); err != nil {
			return nil, err
		}
		return s.stepResult(sess)
	}

	if next, ok := s.flow.Next(sess.CurrentStep); ok && next == StepVerificationPending {
		updated, err := s.maybeEnterVerification(ctx, sess)
		if err != nil {
			return nil, err
		}
		return s.stepResult(updated)
	}

	// Produce the flow's own order error for any other state.
	if _, err := s.flow.Advance(sess.CurrentStep, StepVerificationPending); err != nil {
		return nil, err
	}
	return nil, ErrStepMismatch
}

// VerifyInput carries the submitted codes. A channel already verified in
// an earlier partial submission may be left empty.
type VerifyInput struct {
	EmailCode string
	PhoneCode string
}

// Verify checks the submitted codes and, once both channels are verified,
// finalizes the registration. A replay against a completed session echoes
// the cached result.
func (s *Service) Verify(ctx context.Context, rawToken string, in VerifyInput) (*FinalizeResult, error) {
	claims, err := s.codec.Parse(rawToken)
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if sess.Flow != s.flow.Name() {
		return nil, ErrFlowMismatch
	}
	// Completed sessions echo their result even to a token minted one
	// version earlier; the signature already proves flow participation.
	if sess.CurrentStep == s.flow.Terminal() {
		if sess.Result != nil {
			return sess.Result, nil
		}
		return nil, ErrAlreadyCompleted
	}
	if claims.Version != sess.Version || stepflow.Step(claims.Step) != sess.CurrentStep {
		return nil, ErrVersionConflict
	}
	if _, err := s.flow.Advance(sess.CurrentStep, StepVerificationPending); err != nil {
		return nil, err
	}

	submitted := map[Channel]string{
		ChannelEmail: sanitizer.Trim(in.EmailCode),
		ChannelPhone: sanitizer.Trim(in.PhoneCode),
	}
	fieldNames := map[Channel]string{
		ChannelEmail: "emailCode",
		ChannelPhone: "phoneCode",
	}

	fieldErrs := make(map[string]string)
	tooManyAttempts := false
	for _, ch := range []Channel{ChannelEmail, ChannelPhone} {
		if sess.ChannelVerified(ch) {
			continue
		}
		code := submitted[ch]
		if code == "" {
			fieldErrs[fieldNames[ch]] = "required"
			continue
		}
		switch err := s.codes.Validate(ctx, sess.ID, ch, code); err {
		case nil:
			updated, markErr := s.sessions.MarkVerified(ctx, sess.ID, ch)
			if markErr != nil {
				return nil, markErr
			}
			sess = updated
		case ErrCodeInvalid:
			fieldErrs[fieldNames[ch]] = "invalid code"
		case ErrCodeExpired:
			fieldErrs[fieldNames[ch]] = "code expired"
		case ErrTooManyAttempts:
			tooManyAttempts = true
		default:
			return nil, err
		}
	}
	if tooManyAttempts {
		return nil, ErrTooManyAttempts
	}
	if len(fieldErrs) > 0 {
		return nil, &VerificationError{Fields: fieldErrs}
	}

	return s.finalize(ctx, sess)
}

// Resume re-mints a token for the session's current state. It accepts any
// signature-valid, unexpired token for the session regardless of version,
// which is how a client recovers after a version conflict.
func (s *Service) Resume(ctx context.Context, rawToken string) (*StepResult, error) {
	claims, err := s.codec.Parse(rawToken)
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if sess.Flow != s.flow.Name() {
		return nil, ErrFlowMismatch
	}
	return s.stepResult(sess)
}

// advance validates the transition against the flow machine and commits it
// through the store's compare-and-swap.
func (s *Service) advance(ctx context.Context, sess *Session, from stepflow.Step, patch map[string]string) (*Session, error) {
	next, err := s.flow.Advance(sess.CurrentStep, from)
	if err != nil {
		return nil, err
	}
	updated, err := s.sessions.ApplyStep(ctx, sess.ID, sess.Version, sess.CurrentStep, patch, next)
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "registration step advanced",
		logger.SessionID(updated.ID),
		logger.Step(updated.CurrentStep.String()),
	)
	return updated, nil
}

// maybeEnterVerification issues and delivers codes when the session sits
// on the last data step, then advances it into verification. A delivery
// failure leaves the session on the data step; ResendCodes is the
// recovery path.
func (s *Service) maybeEnterVerification(ctx context.Context, sess *Session) (*Session, error) {
	next, ok := s.flow.Next(sess.CurrentStep)
	if !ok || next != StepVerificationPending {
		return sess, nil
	}
	if err := s.issueAndSend(ctx, sess); err != nil {
		return nil, err
	}
	return s.sessions.ApplyStep(ctx, sess.ID, sess.Version, sess.CurrentStep, nil, StepVerificationPending)
}

func (s *Service) issueAndSend(ctx context.Context, sess *Session) error {
	emailCode, err := s.codes.Issue(ctx, sess.ID, ChannelEmail, sess.ExpiresAt)
	if err != nil {
		return err
	}
	if err := s.email.SendEmail(ctx, notifier.SendEmailParams{
		SendTo:   sess.Data[DataEmail],
		Subject:  "Your verification code",
		BodyHTML: fmt.Sprintf("<p>Your verification code is <strong>%s</strong>. It expires at %s.</p>", emailCode.Value, emailCode.ExpiresAt.UTC().Format(time.RFC1123)),
		Tag:      "verification",
	}); err != nil {
		return &NotifyError{Channel: ChannelEmail, Err: err}
	}

	phoneCode, err := s.codes.Issue(ctx, sess.ID, ChannelPhone, sess.ExpiresAt)
	if err != nil {
		return err
	}
	if err := s.sms.SendSMS(ctx, notifier.SendSMSParams{
		SendTo: sess.Data[DataPhone],
		Body:   fmt.Sprintf("Your verification code is %s", phoneCode.Value),
	}); err != nil {
		return &NotifyError{Channel: ChannelPhone, Err: err}
	}

	s.log.InfoContext(ctx, "verification codes issued",
		logger.SessionID(sess.ID),
		slog.String("email", sanitizer.MaskEmail(sess.Data[DataEmail])),
		slog.String("phone", sanitizer.MaskPhone(sess.Data[DataPhone])),
	)
	return nil
}

// finalize commits the account atomically and caches the result on the
// session so replays of the final step return the same payload.
func (s *Service) finalize(ctx context.Context, sess *Session) (*FinalizeResult, error) {
	params := CreateAccountParams{
		SessionID:    sess.ID,
		Email:        sess.Data[DataEmail],
		Phone:        sess.Data[DataPhone],
		Name:         sess.Data[DataName],
		Role:         s.role,
		PasswordHash: []byte(sess.Data[DataPasswordHash]),
		CollegeName:  sess.Data[DataCollegeName],
		Position:     sess.Data[DataPosition],
		Department:   sess.Data[DataDepartment],
	}
	if raw := sess.Data[DataCollegeID]; raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, ErrCollegeNotFound
		}
		params.CollegeID = id
	}

	account, err := s.accounts.CreateAccount(ctx, params)
	if err != nil {
		return nil, err
	}
	accessToken, err := s.issuer.IssueAccessToken(account)
	if err != nil {
		return nil, err
	}
	result := &FinalizeResult{AccessToken: accessToken, Account: *account}

	if _, err := s.sessions.Complete(ctx, sess.ID, sess.Version, s.flow.Terminal(), result); err != nil {
		if err == ErrVersionConflict {
			// A concurrent verification finished first; echo its result.
			current, getErr := s.sessions.Get(ctx, sess.ID)
			if getErr == nil && current.Result != nil {
				return current.Result, nil
			}
		}
		return nil, err
	}

	if err := s.codes.store.DeleteBySession(ctx, sess.ID); err != nil {
		s.log.WarnContext(ctx, "failed to clean up verification codes",
			logger.SessionID(sess.ID), logger.Error(err))
	}

	s.log.InfoContext(ctx, "registration completed",
		logger.SessionID(sess.ID),
		logger.AccountID(account.ID.String()),
		slog.String("role", account.Role),
	)
	return result, nil
}
