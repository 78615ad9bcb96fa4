package config

import "fmt"

// CacheKeyStruct builds every Redis key the server uses so that key formats
// live in one place.
type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// OTPKey holds the bcrypt hash of the code last sent to a mobile number.
func (r *CacheKeyStruct) OTPKey(mobile string) string {
	return fmt.Sprintf("otp:%s:code", mobile)
}

// OTPAttemptsKey counts failed verifications of the current code.
func (r *CacheKeyStruct) OTPAttemptsKey(mobile string) string {
	return fmt.Sprintf("otp:%s:attempts", mobile)
}

// OTPCooldownKey exists while a new code may not be requested.
func (r *CacheKeyStruct) OTPCooldownKey(mobile string) string {
	return fmt.Sprintf("otp:%s:cooldown", mobile)
}

// LoginSessionKey maps a login session to the id of its current refresh token.
func (r *CacheKeyStruct) LoginSessionKey(sessionID string) string {
	return fmt.Sprintf("login:%s", sessionID)
}

// ActiveSetKey points at the question set served by /question/list.
func (r *CacheKeyStruct) ActiveSetKey() string {
	return "question_set:active"
}

// QuestionSetPayloadKey caches a full question set, answers included.
func (r *CacheKeyStruct) QuestionSetPayloadKey(setID string) string {
	return fmt.Sprintf("question_set:%s:payload", setID)
}

// CandidateAttemptsKey caches a candidate's result list.
func (r *CacheKeyStruct) CandidateAttemptsKey(candidateID int64) string {
	return fmt.Sprintf("candidate:%d:attempts", candidateID)
}

var CacheKey = NewCacheKeyStruct()
