package server

import (
	"strconv"
	"time"

	"github.com/poiesic/sosai/core"
)

type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

type statusResponse struct {
	OK           bool   `json:"ok"`
	Service      string `json:"service"`
	CorpusLoaded bool   `json:"corpus_loaded"`
	Questions    int    `json:"questions"`
	Answers      int    `json:"answers"`
	Dimension    int    `json:"dimension"`
	Policy       string `json:"policy"`
	Provider     string `json:"answer_provider"`
	SpeechReady  bool   `json:"speech_ready"`
	CorpusError  string `json:"corpus_error,omitempty"`
}

type answerRequest struct {
	Question string `json:"question"`
	TopK     *int   `json:"top_k"`
}

type resultDTO struct {
	Question    string  `json:"question"`
	Answer      string  `json:"answer"`
	Similarity  float32 `json:"similarity"`
	CategoryKey string  `json:"category_key"`
	Condition   string  `json:"condition"`
	Intent      string  `json:"intent"`
}

type answerResponse struct {
	OK         bool        `json:"ok"`
	Question   string      `json:"question"`
	Results    []resultDTO `json:"results"`
	BestAnswer string      `json:"best_answer"`
	Found      bool        `json:"found"`
	ElapsedMs  int64       `json:"elapsed_ms"`
}

func newAnswerResponse(result *core.QueryResult, elapsed time.Duration) answerResponse {
	resp := answerResponse{
		OK:         true,
		Question:   result.Query,
		Results:    make([]resultDTO, len(result.Results)),
		BestAnswer: result.BestAnswer,
		Found:      result.Found(),
		ElapsedMs:  elapsed.Milliseconds(),
	}
	for i, r := range result.Results {
		resp.Results[i] = resultDTO{
			Question:    r.Question,
			Answer:      r.Answer,
			Similarity:  r.Similarity,
			CategoryKey: r.Category.String(),
			Condition:   r.Category.Condition,
			Intent:      r.Category.Intent,
		}
	}
	return resp
}

type chatRequest struct {
	Prompt string `json:"prompt"`
}

type chatResponse struct {
	OK           bool   `json:"ok"`
	Answer       string `json:"answer"`
	Personalized bool   `json:"personalized"`
	ElapsedMs    int64  `json:"elapsed_ms"`
}

type dialogRequest struct {
	Keyword string `json:"keyword"`
	State   string `json:"state"`
	Speak   bool   `json:"speak"`
}

type dialogResponse struct {
	OK       bool   `json:"ok"`
	Text     string `json:"text"`
	Hint     string `json:"hint,omitempty"`
	State    string `json:"state"`
	Done     bool   `json:"done"`
	AudioURL string `json:"audio_url,omitempty"`
}

type ttsRequest struct {
	Text string `json:"text"`
	Lang string `json:"lang"`
}

type ttsResponse struct {
	OK  bool   `json:"ok"`
	URL string `json:"url"`
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userDTO struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type authResponse struct {
	Token string  `json:"token"`
	User  userDTO `json:"user"`
}

func newAuthResponse(user *core.User, token string) authResponse {
	return authResponse{
		Token: token,
		User: userDTO{
			ID:        formatID(user.Id),
			Email:     user.Email,
			Name:      user.Name,
			CreatedAt: user.CreatedAt,
		},
	}
}

// profileDTO is the medical profile document. Input and output share the
// shape; user_id and the timestamps are ignored on input.
type profileDTO struct {
	UserID            string    `json:"user_id"`
	Name              string    `json:"name"`
	BirthDate         string    `json:"birth_date"`
	BloodType         string    `json:"blood_type"`
	MedicalHistory    string    `json:"medical_history"`
	SurgeryHistory    string    `json:"surgery_history"`
	Medications       string    `json:"medications"`
	Allergies         string    `json:"allergies"`
	EmergencyContacts string    `json:"emergency_contacts"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func newProfileDTO(p *core.Profile) profileDTO {
	return profileDTO{
		UserID:            formatID(p.UserId),
		Name:              p.Name,
		BirthDate:         p.BirthDate,
		BloodType:         p.BloodType,
		MedicalHistory:    p.MedicalHistory,
		SurgeryHistory:    p.SurgeryHistory,
		Medications:       p.Medications,
		Allergies:         p.Allergies,
		EmergencyContacts: p.EmergencyContacts,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func (d profileDTO) toProfile(userID core.ID) *core.Profile {
	return &core.Profile{
		UserId:            userID,
		Name:              d.Name,
		BirthDate:         d.BirthDate,
		BloodType:         d.BloodType,
		MedicalHistory:    d.MedicalHistory,
		SurgeryHistory:    d.SurgeryHistory,
		Medications:       d.Medications,
		Allergies:         d.Allergies,
		EmergencyContacts: d.EmergencyContacts,
	}
}

func formatID(id core.ID) string {
	return strconv.FormatUint(uint64(id), 10)
}
