package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/valyala/fastjson"
	"go.uber.org/zap"

	"github.com/DAMIR030303/Vohada-Ish-sub001/internal/auth"
	"github.com/DAMIR030303/Vohada-Ish-sub001/internal/chat"
	"github.com/DAMIR030303/Vohada-Ish-sub001/internal/job"
	"github.com/DAMIR030303/Vohada-Ish-sub001/internal/storage"
)

type parsers struct {
	registerPool          fastjson.ParserPool
	loginPool             fastjson.ParserPool
	createJobPool         fastjson.ParserPool
	getJobPool            fastjson.ParserPool
	listJobsPool          fastjson.ParserPool
	startConversationPool fastjson.ParserPool
	sendMessagePool       fastjson.ParserPool
	markReadPool          fastjson.ParserPool
	typingPool            fastjson.ParserPool
}

type handler struct {
	logger  *zap.SugaredLogger
	auth    *auth.Service
	jobs    *job.Service
	chat    *chat.Service
	parsers parsers
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(payload); err != nil {
		h.logger.Errorf("writing marshaled data to ResponseWriter: %v", err)
	}
}

func (h *handler) internalError(w http.ResponseWriter, err error) {
	h.logger.Error(err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// register handles HTTP requests on "/auth/register" endpoint
func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	parser := h.parsers.registerPool.Get()
	defer h.parsers.registerPool.Put(parser)
	v, _ := parser.ParseBytes(body)

	email := string(v.GetStringBytes("email"))
	if email == "" {
		http.Error(w, "Field \"email\" must be a non-empty string", http.StatusBadRequest)
		return
	}

	password := string(v.GetStringBytes("password"))
	if password == "" {
		http.Error(w, "Field \"password\" must be a non-empty string", http.StatusBadRequest)
		return
	}

	displayName := string(v.GetStringBytes("displayName"))
	if displayName == "" {
		http.Error(w, "Field \"displayName\" must be a non-empty string", http.StatusBadRequest)
		return
	}

	id, err := h.auth.Register(r.Context(), auth.RegisterParams{
		Email:       email,
		Password:    password,
		DisplayName: displayName,
		Phone:       string(v.GetStringBytes("phone")),
	})
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			http.Error(w, "User already exists", http.StatusBadRequest)
			return
		}
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, []byte(`{"id":"`+id+`"}`))
}

// login handles HTTP requests on "/auth/login" endpoint
func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	parser := h.parsers.loginPool.Get()
	defer h.parsers.loginPool.Put(parser)
	v, _ := parser.ParseBytes(body)

	email := string(v.GetStringBytes("email"))
	if email == "" {
		http.Error(w, "Field \"email\" must be a non-empty string", http.StatusBadRequest)
		return
	}

	password := string(v.GetStringBytes("password"))
	if password == "" {
		http.Error(w, "Field \"password\" must be a non-empty string", http.StatusBadRequest)
		return
	}

	token, u, err := h.auth.Login(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			http.Error(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}
		h.internalError(w, err)
		return
	}

	payload, err := json.Marshal(struct {
		Token string       `json:"token"`
		User  storage.User `json:"user"`
	}{Token: token, User: u})
	if err != nil {
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, payload)
}

// createJob handles HTTP requests on "/jobs/add" endpoint
func (h *handler) createJob(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := userFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	body, _ := io.ReadAll(r.Body)

	parser := h.parsers.createJobPool.Get()
	defer h.parsers.createJobPool.Put(parser)
	v, _ := parser.ParseBytes(body)

	title := string(v.GetStringBytes("title"))
	if title == "" {
		http.Error(w, "Field \"title\" must be a non-empty string", http.StatusBadRequest)
		return
	}

	description := string(v.GetStringBytes("description"))
	if description == "" {
		http.Error(w, "Field \"description\" must be a non-empty string", http.StatusBadRequest)
		return
	}

	category := string(v.GetStringBytes("category"))
	if category == "" {
		http.Error(w, "Field \"category\" must be a non-empty string", http.StatusBadRequest)
		return
	}

	region := string(v.GetStringBytes("region"))
	if region == "" {
		http.Error(w, "Field \"region\" must be a non-empty string", http.StatusBadRequest)
		return
	}

	id, err := h.jobs.Create(r.Context(), storage.NewJob{
		Title:          title,
		Description:    description,
		Category:       category,
		Region:         region,
		District:       string(v.GetStringBytes("district")),
		SalaryMin:      v.GetInt64("salaryMin"),
		SalaryMax:      v.GetInt64("salaryMax"),
		Currency:       string(v.GetStringBytes("currency")),
		EmploymentType: string(v.GetStringBytes("employmentType")),
		Requirements:   stringSlice(v.GetArray("requirements")),
		Benefits:       stringSlice(v.GetArray("benefits")),
		CompanyName:    string(v.GetStringBytes("companyName")),
		ContactPhone:   string(v.GetStringBytes("contactPhone")),
		ContactEmail:   string(v.GetStringBytes("contactEmail")),
		PostedBy:       userID,
		Status:         string(v.GetStringBytes("status")),
	})
	if err != nil {
		if errors.Is(err, storage.ErrUserNotExist) {
			http.Error(w, "Poster does not exist", http.StatusBadRequest)
			return
		}
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, []byte(`{"id":"`+id+`"}`))
}

// getJob handles HTTP requests on "/jobs/get" endpoint
func (h *handler) getJob(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	parser := h.parsers.getJobPool.Get()
	defer h.parsers.getJobPool.Put(parser)
	v, _ := parser.ParseBytes(body)

	id := string(v.GetStringBytes("id"))
	if id == "" {
		http.Error(w, "Field \"id\" must be a non-empty string", http.StatusBadRequest)
		return
	}

	j, err := h.jobs.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrJobNotExist) {
			http.Error(w, "Job does not exist", http.StatusBadRequest)
			return
		}
		h.internalError(w, err)
		return
	}

	payload, err := json.Marshal(j)
	if err != nil {
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, payload)
}

// listJobs handles HTTP requests on "/jobs/list" endpoint
func (h *handler) listJobs(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	parser := h.parsers.listJobsPool.Get()
	defer h.parsers.listJobsPool.Put(parser)
	v, _ := parser.ParseBytes(body)

	jobs, err := h.jobs.List(r.Context(), storage.JobFilter{
		Category:       string(v.GetStringBytes("category")),
		Region:         string(v.GetStringBytes("region")),
		EmploymentType: string(v.GetStringBytes("employmentType")),
		Status:         string(v.GetStringBytes("status")),
		Query:          string(v.GetStringBytes("query")),
		Limit:          v.GetInt("limit"),
	})
	if err != nil {
		h.internalError(w, err)
		return
	}

	payload, err := json.Marshal(jobs)
	if err != nil {
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, payload)
}

// startConversation handles HTTP requests on "/conversations/start" endpoint
func (h *handler) startConversation(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := userFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	body, _ := io.ReadAll(r.Body)

	parser := h.parsers.startConversationPool.Get()
	defer h.parsers.startConversationPool.Put(parser)
	v, _ := parser.ParseBytes(body)

	otherUserID := string(v.GetStringBytes("otherUserId"))
	if otherUserID == "" {
		http.Error(w, "Field \"otherUserId\" must be a non-empty string", http.StatusBadRequest)
		return
	}

	id, err := h.chat.GetOrCreateConversation(r.Context(), userID, otherUserID,
		string(v.GetStringBytes("jobId")), string(v.GetStringBytes("jobTitle")))
	if err != nil {
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, []byte(`{"id":"`+id+`"}`))
}

// sendMessage handles HTTP requests on "/messages/send" endpoint
func (h *handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	userID, userName, ok := userFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	body, _ := io.ReadAll(r.Body)

	parser := h.parsers.sendMessagePool.Get()
	defer h.parsers.sendMessagePool.Put(parser)
	v, _ := parser.ParseBytes(body)

	conversationID := string(v.GetStringBytes("conversationId"))
	if conversationID == "" {
		http.Error(w, "Field \"conversationId\" must be a non-empty string", http.StatusBadRequest)
		return
	}

	receiverID := string(v.GetStringBytes("receiverId"))
	if receiverID == "" {
		http.Error(w, "Field \"receiverId\" must be a non-empty string", http.StatusBadRequest)
		return
	}

	content := string(v.GetStringBytes("content"))
	if content == "" {
		http.Error(w, "Field \"content\" must be a non-empty string", http.StatusBadRequest)
		return
	}

	err := h.chat.SendMessage(r.Context(), chat.SendMessageParams{
		ConversationID: conversationID,
		SenderID:       userID,
		SenderName:     userName,
		SenderAvatar:   string(v.GetStringBytes("senderAvatar")),
		ReceiverID:     receiverID,
		Content:        content,
		Type:           string(v.GetStringBytes("type")),
		MediaURL:       string(v.GetStringBytes("mediaUrl")),
	})
	if err != nil {
		if errors.Is(err, storage.ErrConversationNotExist) {
			http.Error(w, "Conversation does not exist", http.StatusBadRequest)
			return
		}
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, []byte(`{"ok":true}`))
}

// markRead handles HTTP requests on "/messages/read" endpoint
func (h *handler) markRead(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := userFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	body, _ := io.ReadAll(r.Body)

	parser := h.parsers.markReadPool.Get()
	defer h.parsers.markReadPool.Put(parser)
	v, _ := parser.ParseBytes(body)

	conversationID := string(v.GetStringBytes("conversationId"))
	if conversationID == "" {
		http.Error(w, "Field \"conversationId\" must be a non-empty string", http.StatusBadRequest)
		return
	}

	if err := h.chat.MarkMessagesAsRead(r.Context(), conversationID, userID); err != nil {
		if errors.Is(err, storage.ErrConversationNotExist) {
			http.Error(w, "Conversation does not exist", http.StatusBadRequest)
			return
		}
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, []byte(`{"ok":true}`))
}

// setTyping handles HTTP requests on "/typing/set" endpoint.
// Always answers ok: typing updates are best effort and never surface errors.
func (h *handler) setTyping(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := userFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	body, _ := io.ReadAll(r.Body)

	parser := h.parsers.typingPool.Get()
	defer h.parsers.typingPool.Put(parser)
	v, _ := parser.ParseBytes(body)

	conversationID := string(v.GetStringBytes("conversationId"))
	if conversationID == "" {
		http.Error(w, "Field \"conversationId\" must be a non-empty string", http.StatusBadRequest)
		return
	}

	h.chat.UpdateTypingStatus(r.Context(), conversationID, userID, v.GetBool("isTyping"))

	h.writeJSON(w, http.StatusOK, []byte(`{"ok":true}`))
}

func stringSlice(values []*fastjson.Value) []string {
	if len(values) == 0 {
		return nil
	}

	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, string(v.GetStringBytes()))
	}
	return out
}
