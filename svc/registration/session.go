package registration

import (
	"time"

	"github.com/dmitrymomot/enrollkit/pkg/stepflow"
)

// Channel identifies a verification delivery channel.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPhone Channel = "phone"
)

// Data keys collected across steps. Values are flat strings so sessions
// serialize the same way in every store backend.
const (
	DataName            = "name"
	DataEmail           = "email"
	DataPhone           = "phone"
	DataPasswordHash    = "password_hash"
	DataRole            = "role"
	DataCollegeID       = "college_id"
	DataCollegeName     = "college_name"
	DataPosition        = "position"
	DataDepartment      = "department"
	DataTokenSymbol     = "token_symbol"
	DataTokenAllocation = "token_allocation"
	DataTokenSkipped    = "token_config_skipped"
)

// Session is the server-side state of one registration attempt. Version
// increments on every step transition and is echoed inside the temp token,
// which is what makes concurrent submissions detectable.
type Session struct {
	ID          string            `json:"id"`
	Flow        string            `json:"flow"`
	CurrentStep stepflow.Step     `json:"current_step"`
	Version     int64             `json:"version"`
	Data        map[string]string `json:"data"`
	Verified    map[Channel]bool  `json:"verified,omitempty"`
	Result      *FinalizeResult   `json:"result,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	ExpiresAt   time.Time         `json:"expires_at"`
}

// IsExpired reports whether the session passed its absolute deadline.
// The deadline never slides; activity does not extend it.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// ChannelVerified reports whether the given channel already had a code
// consumed successfully.
func (s *Session) ChannelVerified(ch Channel) bool {
	return s.Verified[ch]
}

// Clone returns a deep copy so stores can hand out sessions without
// sharing mutable maps with callers.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Data = make(map[string]string, len(s.Data))
	for k, v := range s.Data {
		cp.Data[k] = v
	}
	if s.Verified != nil {
		cp.Verified = make(map[Channel]bool, len(s.Verified))
		for k, v := range s.Verified {
			cp.Verified[k] = v
		}
	}
	if s.Result != nil {
		r := *s.Result
		cp.Result = &r
	}
	return &cp
}

// mergeData folds patch into dst without overwriting existing keys.
// Earlier steps own their fields; a later submission cannot silently
// rewrite what a completed step already recorded.
func mergeData(dst, patch map[string]string) map[string]string {
	if dst == nil {
		dst = make(map[string]string, len(patch))
	}
	for k, v := range patch {
		if _, ok := dst[k]; !ok {
			dst[k] = v
		}
	}
	return dst
}
