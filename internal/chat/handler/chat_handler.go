// Package handler exposes the chat operations over HTTP.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"chathub/internal/chat/repository"
	"chathub/internal/chat/service"
	"chathub/internal/common"
	"chathub/internal/preview"
)

type ChatHandler struct {
	conversations service.ConversationService
	messages      service.MessageService
	typing        service.TypingService
	channels      service.ChannelService
	previews      preview.Fetcher
}

func NewChatHandler(
	conversations service.ConversationService,
	messages service.MessageService,
	typing service.TypingService,
	channels service.ChannelService,
	previews preview.Fetcher,
) *ChatHandler {
	return &ChatHandler{
		conversations: conversations,
		messages:      messages,
		typing:        typing,
		channels:      channels,
		previews:      previews,
	}
}

// Register mounts every chat route on an authenticated router.
func (h *ChatHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/conversations", h.getConversations).Methods(http.MethodGet)

	r.HandleFunc("/api/messages", h.sendMessage).Methods(http.MethodPost)
	r.HandleFunc("/api/messages", h.getMessages).Methods(http.MethodGet)
	r.HandleFunc("/api/messages/search", h.searchMessages).Methods(http.MethodGet)
	r.HandleFunc("/api/messages/{messageId}/read", h.markRead).Methods(http.MethodPost)

	r.HandleFunc("/api/typing/start", h.startTyping).Methods(http.MethodPost)
	r.HandleFunc("/api/typing/stop", h.stopTyping).Methods(http.MethodPost)
	r.HandleFunc("/api/typing", h.getTyping).Methods(http.MethodGet)

	r.HandleFunc("/api/channels", h.createChannel).Methods(http.MethodPost)
	r.HandleFunc("/api/channels", h.getUserChannels).Methods(http.MethodGet)
	r.HandleFunc("/api/channels/{channelId}/join", h.joinChannel).Methods(http.MethodPost)
	r.HandleFunc("/api/groups", h.createGroup).Methods(http.MethodPost)

	r.HandleFunc("/api/preview", h.generatePreview).Methods(http.MethodPost)
}

func (h *ChatHandler) getConversations(w http.ResponseWriter, r *http.Request) {
	callerID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "user not authenticated", http.StatusUnauthorized)
		return
	}
	conversations, err := h.conversations.GetUserConversations(r.Context(), callerID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, conversations)
}

type sendMessageRequest struct {
	Content     string  `json:"content"`
	Type        string  `json:"type"`
	ChannelID   *string `json:"channel_id"`
	GroupID     *string `json:"group_id"`
	RecipientID *string `json:"recipient_id"`
	ImageURL    *string `json:"image_url"`
	ReplyToID   *string `json:"reply_to_id"`
}

func (h *ChatHandler) sendMessage(w http.ResponseWriter, r *http.Request) {
	callerID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "user not authenticated", http.StatusUnauthorized)
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	msg, err := h.messages.SendMessage(r.Context(), service.SendMessageInput{
		AuthorID:    callerID,
		Content:     req.Content,
		Type:        req.Type,
		ChannelID:   req.ChannelID,
		GroupID:     req.GroupID,
		RecipientID: req.RecipientID,
		ImageURL:    req.ImageURL,
		ReplyToID:   req.ReplyToID,
	})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusCreated, msg)
}

func (h *ChatHandler) getMessages(w http.ResponseWriter, r *http.Request) {
	callerID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "user not authenticated", http.StatusUnauthorized)
		return
	}

	q := service.MessageQuery{
		RequesterID: callerID,
		ChannelID:   queryParam(r, "channel_id"),
		GroupID:     queryParam(r, "group_id"),
		RecipientID: queryParam(r, "recipient_id"),
		Limit:       queryInt(r, "limit"),
		Offset:      queryInt(r, "offset"),
	}
	msgs, err := h.messages.GetMessages(r.Context(), q)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, msgs)
}

func (h *ChatHandler) searchMessages(w http.ResponseWriter, r *http.Request) {
	callerID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "user not authenticated", http.StatusUnauthorized)
		return
	}

	msgs, err := h.messages.SearchMessages(r.Context(), service.SearchInput{
		UserID:    callerID,
		Query:     r.URL.Query().Get("q"),
		ChannelID: queryParam(r, "channel_id"),
		GroupID:   queryParam(r, "group_id"),
		Limit:     queryInt(r, "limit"),
	})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, msgs)
}

func (h *ChatHandler) markRead(w http.ResponseWriter, r *http.Request) {
	callerID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "user not authenticated", http.StatusUnauthorized)
		return
	}
	messageID := mux.Vars(r)["messageId"]

	receipt, err := h.messages.MarkMessageRead(r.Context(), messageID, callerID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, receipt)
}

type typingRequest struct {
	ChannelID   string `json:"channel_id"`
	GroupID     string `json:"group_id"`
	RecipientID string `json:"recipient_id"`
}

func (req typingRequest) location() repository.TypingLocation {
	return repository.TypingLocation{
		ChannelID:   req.ChannelID,
		GroupID:     req.GroupID,
		RecipientID: req.RecipientID,
	}
}

func (h *ChatHandler) startTyping(w http.ResponseWriter, r *http.Request) {
	callerID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "user not authenticated", http.StatusUnauthorized)
		return
	}

	var req typingRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	indicator, err := h.typing.StartTyping(r.Context(), callerID, req.location())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, indicator)
}

// stopTyping with an empty body (or all-empty fields) clears every
// indicator the caller has.
func (h *ChatHandler) stopTyping(w http.ResponseWriter, r *http.Request) {
	callerID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "user not authenticated", http.StatusUnauthorized)
		return
	}

	var req typingRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	var loc *repository.TypingLocation
	if l := req.location(); l != (repository.TypingLocation{}) {
		loc = &l
	}

	if err := h.typing.StopTyping(r.Context(), callerID, loc); err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *ChatHandler) getTyping(w http.ResponseWriter, r *http.Request) {
	loc := repository.TypingLocation{
		ChannelID:   r.URL.Query().Get("channel_id"),
		GroupID:     r.URL.Query().Get("group_id"),
		RecipientID: r.URL.Query().Get("recipient_id"),
	}
	var filter *repository.TypingLocation
	if loc != (repository.TypingLocation{}) {
		filter = &loc
	}

	indicators, err := h.typing.ListTypingIndicators(r.Context(), filter)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, indicators)
}

func (h *ChatHandler) createChannel(w http.ResponseWriter, r *http.Request) {
	callerID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "user not authenticated", http.StatusUnauthorized)
		return
	}

	var req struct {
		Name string `json:"name"`
		Type string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	channel, err := h.channels.CreateChannel(r.Context(), callerID, req.Name, req.Type)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusCreated, channel)
}

func (h *ChatHandler) getUserChannels(w http.ResponseWriter, r *http.Request) {
	callerID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "user not authenticated", http.StatusUnauthorized)
		return
	}
	channels, err := h.channels.ListUserChannels(r.Context(), callerID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, channels)
}

func (h *ChatHandler) joinChannel(w http.ResponseWriter, r *http.Request) {
	callerID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "user not authenticated", http.StatusUnauthorized)
		return
	}
	channelID := mux.Vars(r)["channelId"]

	membership, err := h.channels.JoinChannel(r.Context(), channelID, callerID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusCreated, membership)
}

func (h *ChatHandler) createGroup(w http.ResponseWriter, r *http.Request) {
	callerID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "user not authenticated", http.StatusUnauthorized)
		return
	}

	var req struct {
		Name      string   `json:"name"`
		MemberIDs []string `json:"member_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	group, err := h.channels.CreateGroup(r.Context(), callerID, req.Name, req.MemberIDs)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusCreated, group)
}

// generatePreview exposes the link-preview fetcher directly. A URL that
// yields nothing returns null, matching the fetcher's best-effort contract.
func (h *ChatHandler) generatePreview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		http.Error(w, "url is required", http.StatusBadRequest)
		return
	}
	common.WriteJSON(w, http.StatusOK, h.previews.Fetch(r.Context(), req.URL))
}

func queryParam(r *http.Request, name string) *string {
	if v := r.URL.Query().Get(name); v != "" {
		return &v
	}
	return nil
}

func queryInt(r *http.Request, name string) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
