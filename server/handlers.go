package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/poiesic/sosai/core"
	"github.com/poiesic/sosai/dialog"
	"github.com/poiesic/sosai/events"
	"github.com/poiesic/sosai/search"
	"github.com/poiesic/sosai/speech"
	"github.com/poiesic/sosai/storage"
)

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{
		OK:          true,
		Service:     ServiceName,
		Policy:      s.retriever.Policy().Name(),
		Provider:    s.providerName,
		SpeechReady: s.speech != nil,
	}
	if c := s.corpus.Current(); c != nil {
		resp.CorpusLoaded = true
		resp.Questions = c.Len()
		resp.Answers = c.AnswerCount()
		resp.Dimension = c.Dimension()
	}
	if err := s.corpus.LastError(); err != nil {
		resp.CorpusError = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req answerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	topK := s.defaultTopK
	if req.TopK != nil {
		topK = max(1, *req.TopK)
	}

	result, err := s.retriever.Retrieve(r.Context(), req.Question, topK)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	elapsed := time.Since(start)
	s.publish(r.Context(), events.FromResult(events.SourceAnswer, result, elapsed))
	writeJSON(w, http.StatusOK, newAnswerResponse(result, elapsed))
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	prompt := search.Normalize(req.Prompt)
	if prompt == "" {
		writeError(w, s.logger, core.ErrEmptyQuery)
		return
	}

	var userID core.ID
	var personalization string
	if s.auth != nil && r.Header.Get("Authorization") != "" {
		id, err := s.auth.Authenticate(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, s.logger, err)
			return
		}
		userID = id
		personalization = s.personalization(r, id)
	}

	answer, err := s.answers.Generate(r.Context(), prompt, personalization)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	elapsed := time.Since(start)
	s.publish(r.Context(), events.AnswerServed{
		Source:     events.SourceChat,
		Query:      prompt,
		BestAnswer: answer,
		Found:      answer != core.NoAnswerFound,
		UserID:     userID,
		ElapsedMs:  elapsed.Milliseconds(),
		ServedAt:   time.Now().UTC(),
	})
	writeJSON(w, http.StatusOK, chatResponse{
		OK:           true,
		Answer:       answer,
		Personalized: personalization != "",
		ElapsedMs:    elapsed.Milliseconds(),
	})
}

// personalization renders the caller's profile. A missing or unreadable
// profile yields "" so the answer is still served.
func (s *Server) personalization(r *http.Request, userID core.ID) string {
	profile, err := s.profiles.GetProfile(r.Context(), userID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("failed to read profile", "user", userID, "err", err)
		}
		return ""
	}
	return profile.PersonalizationText()
}

func (s *Server) handleDialog(w http.ResponseWriter, r *http.Request) {
	var req dialogRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	state, ok := dialog.ParseState(req.State)
	if !ok {
		writeError(w, s.logger, fmt.Errorf("%w: unknown state %q", ErrBadRequest, req.State))
		return
	}

	reply := dialog.Step(state, req.Keyword)
	resp := dialogResponse{
		OK:    true,
		Text:  reply.Text,
		Hint:  reply.Hint,
		State: string(reply.State),
		Done:  reply.Done,
	}
	if req.Speak && s.speech != nil {
		url, err := s.speech.Speak(r.Context(), reply.Text, speech.DefaultLang)
		if err != nil {
			s.logger.Warn("failed to speak dialog reply", "err", err)
		} else {
			resp.AudioURL = url
		}
	}

	s.publish(r.Context(), events.AnswerServed{
		Source:     events.SourceDialog,
		Query:      req.Keyword,
		BestAnswer: reply.Text,
		Found:      true,
		ServedAt:   time.Now().UTC(),
	})
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	if s.speech == nil {
		writeError(w, s.logger, fmt.Errorf("%w: speech", ErrUnavailable))
		return
	}
	var req ttsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}

	url, err := s.speech.Speak(r.Context(), req.Text, req.Lang)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ttsResponse{OK: true, URL: url})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		writeError(w, s.logger, fmt.Errorf("%w: accounts", ErrUnavailable))
		return
	}
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}

	user, token, err := s.auth.Signup(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newAuthResponse(user, token))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		writeError(w, s.logger, fmt.Errorf("%w: accounts", ErrUnavailable))
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}

	user, token, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newAuthResponse(user, token))
}

// requireUser authenticates the request, writing the error response on
// failure.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (core.ID, bool) {
	if s.auth == nil {
		writeError(w, s.logger, fmt.Errorf("%w: accounts", ErrUnavailable))
		return 0, false
	}
	id, err := s.auth.Authenticate(r.Header.Get("Authorization"))
	if err != nil {
		writeError(w, s.logger, err)
		return 0, false
	}
	return id, true
}

func (s *Server) handleGetMedical(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	profile, err := s.profiles.GetProfile(r.Context(), userID)
	if errors.Is(err, storage.ErrNotFound) {
		now := time.Now().UTC()
		profile = &core.Profile{UserId: userID, CreatedAt: now, UpdatedAt: now}
	} else if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newProfileDTO(profile))
}

func (s *Server) handlePutMedical(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var req profileDTO
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}

	profile, err := s.profiles.UpsertProfile(r.Context(), req.toProfile(userID))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newProfileDTO(profile))
}
