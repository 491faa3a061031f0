package system

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"todo-app/common"
	"todo-app/entity"
	"todo-app/mailer"
	"todo-app/storage"
)

// ErrCodeEmailNotVerified is the "code" field of the 403 login response.
const ErrCodeEmailNotVerified = "email_not_verified"

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email[strings.LastIndex(email, "@"):], ".")
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req entity.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || req.Name == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email, name e password são obrigatórios")
		return
	}
	if !validEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "Formato de email inválido")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error hashing password")
		return
	}
	code, err := mailer.GenerateCode()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Erro ao criar usuário")
		return
	}

	user := entity.User{Email: req.Email, Name: req.Name, Password: string(hash)}
	err = h.Store.CreateUser(r.Context(), &user, code, h.Clock.Now().Add(mailer.CodeTTL))
	if errors.Is(err, storage.ErrEmailTaken) {
		writeError(w, http.StatusConflict, "Email já está em uso")
		return
	}
	if err != nil {
		h.Log.Error("Failed to create user", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Erro ao criar usuário")
		return
	}

	message := "Usuário criado com sucesso. Verifique seu email para ativar a conta."
	if err := h.Mailer.SendVerification(r.Context(), user.Email, code); err != nil {
		// the account exists, the user can ask for a new code
		h.Log.Warn("Verification email not sent", zap.Int("user_id", user.ID), zap.Error(err))
		message = "Usuário criado, mas não foi possível enviar o email de verificação. Solicite um novo código."
	}
	writeJSON(w, http.StatusCreated, entity.AuthResponse{Message: message, User: &user})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var creds entity.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	creds.Email = strings.ToLower(strings.TrimSpace(creds.Email))
	if creds.Email == "" || creds.Password == "" {
		writeError(w, http.StatusBadRequest, "Email e password são obrigatórios")
		return
	}

	acc, err := h.Store.AccountByEmail(r.Context(), creds.Email)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		h.Log.Error("Failed to load user", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "DB error")
		return
	}
	if err != nil || bcrypt.CompareHashAndPassword([]byte(acc.Password), []byte(creds.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Email ou senha inválidos")
		return
	}
	if !acc.EmailVerified {
		writeJSON(w, http.StatusForbidden, map[string]string{
			"error": "Email não verificado. Verifique seu email antes de fazer login.",
			"code":  ErrCodeEmailNotVerified,
			"email": acc.Email,
		})
		return
	}

	h.issueSession(w, http.StatusOK, "Login realizado com sucesso", acc.User)
}

func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req entity.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Code = strings.TrimSpace(req.Code)
	if req.Email == "" || req.Code == "" {
		writeError(w, http.StatusBadRequest, "Email e código são obrigatórios")
		return
	}

	acc, ok := h.account(w, r, req.Email)
	if !ok {
		return
	}
	if acc.EmailVerified {
		writeError(w, http.StatusBadRequest, "Email já verificado")
		return
	}
	expired := acc.VerificationExpires == nil || h.Clock.Now().After(*acc.VerificationExpires)
	match := subtle.ConstantTimeCompare([]byte(acc.VerificationCode), []byte(req.Code)) == 1
	if acc.VerificationCode == "" || !match || expired {
		writeError(w, http.StatusBadRequest, "Código inválido ou expirado")
		return
	}

	if err := h.Store.MarkVerified(r.Context(), acc.ID); err != nil {
		h.Log.Error("Failed to mark email verified", zap.Int("user_id", acc.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Erro ao verificar email")
		return
	}
	acc.EmailVerified = true
	h.issueSession(w, http.StatusOK, "Email verificado com sucesso", acc.User)
}

func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req entity.ResendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "Email é obrigatório")
		return
	}

	acc, ok := h.account(w, r, req.Email)
	if !ok {
		return
	}
	if acc.EmailVerified {
		writeError(w, http.StatusBadRequest, "Email já verificado")
		return
	}

	code, err := mailer.GenerateCode()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Erro ao gerar código")
		return
	}
	if err := h.Store.SetVerificationCode(r.Context(), acc.ID, code, h.Clock.Now().Add(mailer.CodeTTL)); err != nil {
		h.Log.Error("Failed to store verification code", zap.Int("user_id", acc.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Erro ao gerar código")
		return
	}
	if err := h.Mailer.SendVerification(r.Context(), acc.Email, code); err != nil {
		writeError(w, http.StatusInternalServerError, "Erro ao enviar email de verificação")
		return
	}
	writeJSON(w, http.StatusOK, entity.AuthResponse{Message: "Novo código enviado para seu email"})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	user, err := h.Store.UserByID(r.Context(), userID)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Usuário não encontrado")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]entity.User{"user": user})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "database": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) account(w http.ResponseWriter, r *http.Request, email string) (storage.Account, bool) {
	acc, err := h.Store.AccountByEmail(r.Context(), email)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Usuário não encontrado")
		return storage.Account{}, false
	}
	if err != nil {
		h.Log.Error("Failed to load user", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "DB error")
		return storage.Account{}, false
	}
	return acc, true
}

func (h *Handler) issueSession(w http.ResponseWriter, status int, message string, user entity.User) {
	token, err := common.IssueToken(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not create token")
		return
	}
	writeJSON(w, status, entity.AuthResponse{Message: message, AccessToken: token, User: &user})
}
