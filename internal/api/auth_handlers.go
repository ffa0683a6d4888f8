package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/GerlachSG/Cruciflix/internal/account"
	"github.com/GerlachSG/Cruciflix/internal/domain"
)

type credentialsRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user, err := s.svc.Accounts.Register(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	token, user, err := s.svc.Accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  user,
	})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.svc.Accounts.ResetPassword(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleConfirmReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.svc.Accounts.ConfirmPasswordReset(r.Context(), req.Token, req.Password); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePlans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, account.Plans())
}

func (s *Server) handleAvatars(w http.ResponseWriter, r *http.Request) {
	kids, _ := strconv.ParseBool(r.URL.Query().Get("kids"))
	writeJSON(w, http.StatusOK, account.AvatarsFor(kids))
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	actor, _ := domain.ActorFromContext(r.Context())
	user, err := s.svc.Accounts.User(r.Context(), actor.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DisplayName string `json:"displayName"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	writeResult(w, http.StatusOK, s.svc.Accounts.UpdateUserProfile(r.Context(), req.DisplayName))
}

func (s *Server) handleSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := s.svc.Accounts.Subscription(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Plan string `json:"plan"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	writeResult(w, http.StatusOK, s.svc.Accounts.UpdateSubscription(r.Context(), req.Plan))
}

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.svc.Accounts.Profiles(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var p domain.Profile
	if !decodeBody(w, r, &p) {
		return
	}
	writeResult(w, http.StatusCreated, s.svc.Accounts.CreateProfile(r.Context(), p))
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var fields domain.Fields
	if !decodeBody(w, r, &fields) {
		return
	}
	writeResult(w, http.StatusOK, s.svc.Accounts.UpdateProfile(r.Context(), chi.URLParam(r, "id"), fields))
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	writeResult(w, http.StatusOK, s.svc.Accounts.DeleteProfile(r.Context(), chi.URLParam(r, "id")))
}

func (s *Server) handleVerifyPIN(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PIN string `json:"pin"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	ok := s.svc.Accounts.VerifyKidsPIN(r.Context(), chi.URLParam(r, "id"), req.PIN)
	writeJSON(w, http.StatusOK, map[string]bool{"valid": ok})
}
