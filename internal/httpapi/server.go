package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/service"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/store"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/types"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/whatsapp"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 500
)

type Dependencies struct {
	Logger         *log.Logger
	Addr           string
	MessageService *service.MessageService
	MessageLog     store.MessageStore
	Sender         whatsapp.Sender
	Reminders      *service.ReminderScheduler

	// SendTimeout bounds the reply send on the webhook. Defaults to 15s.
	SendTimeout time.Duration
}

type Server struct {
	httpServer     *http.Server
	logger         *log.Logger
	mux            *http.ServeMux
	messageService *service.MessageService
	messageLog     store.MessageStore
	sender         whatsapp.Sender
	reminders      *service.ReminderScheduler
	sendTimeout    time.Duration
}

type webhookResponse struct {
	types.InboundReply
	Sent bool `json:"sent"`
}

type sendRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	if d.SendTimeout <= 0 {
		d.SendTimeout = 15 * time.Second
	}

	s := &Server{
		logger:         d.Logger,
		mux:            mux,
		messageService: d.MessageService,
		messageLog:     d.MessageLog,
		sender:         d.Sender,
		reminders:      d.Reminders,
		sendTimeout:    d.SendTimeout,
	}

	mux.HandleFunc("POST /v1/whatsapp/webhook", s.handleWebhook)
	mux.HandleFunc("POST /v1/whatsapp/simulate", s.handleSimulate)
	mux.HandleFunc("POST /v1/whatsapp/send", s.handleSend)
	mux.HandleFunc("GET /v1/whatsapp/messages", s.handleMessages)
	mux.HandleFunc("GET /v1/whatsapp/status", s.handleStatus)
	mux.HandleFunc("POST /v1/reminders/{kind}", s.handleReminder)

	handler := loggingMiddleware(d.Logger, mux)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// handleWebhook processes an inbound event from the bridge and sends the
// reply back. A failed send is logged; the attendance change stands.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	msg, skip, ok := s.decodeInbound(w, r)
	if !ok {
		return
	}
	if skip {
		writeJSON(w, http.StatusOK, webhookResponse{InboundReply: types.InboundReply{OK: true}})
		return
	}

	reply, ok := s.process(w, r, msg)
	if !ok {
		return
	}

	resp := webhookResponse{InboundReply: reply}
	sendCtx, cancel := context.WithTimeout(r.Context(), s.sendTimeout)
	defer cancel()
	if err := s.sender.Send(sendCtx, msg.Phone, reply.Reply); err != nil {
		s.logger.Printf("reply send failed to=%s: %v", msg.Phone, err)
	} else {
		resp.Sent = true
	}

	s.respond(w, r, resp)
}

// handleSimulate processes an event without sending anything.
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	msg, _, ok := s.decodeInbound(w, r)
	if !ok {
		return
	}
	reply, ok := s.process(w, r, msg)
	if !ok {
		return
	}
	s.respond(w, r, webhookResponse{InboundReply: reply})
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Phone) == "" || strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "phone and message are required")
		return
	}
	if !s.sender.Status().Ready {
		writeError(w, http.StatusServiceUnavailable, "sender_not_ready", "whatsapp bridge is not ready")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.sendTimeout)
	defer cancel()
	if err := s.sender.Send(ctx, req.Phone, req.Message); err != nil {
		s.logger.Printf("test send failed to=%s: %v", req.Phone, err)
		writeError(w, http.StatusBadGateway, "send_failed", "message could not be delivered")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	limit := defaultMessageLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = min(n, maxMessageLimit)
	}

	recs, err := s.messageLog.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Printf("messages error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}

	out := make([]types.WhatsappMessage, 0, len(recs))
	for _, m := range recs {
		out = append(out, messageFromRecord(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sender.Status())
}

func (s *Server) handleReminder(w http.ResponseWriter, r *http.Request) {
	kind := service.ReminderKind(r.PathValue("kind"))
	sent, ok := s.reminders.Run(r.Context(), kind)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_reminder", "kind must be clock-in, clock-out or break")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "kind": kind, "sent": sent})
}

// decodeInbound reads a JSON or protobuf event. skip is set for events the
// bridge echoes back for our own or group messages. ok=false means an error
// response has been written.
func (s *Server) decodeInbound(w http.ResponseWriter, r *http.Request) (msg types.InboundMessage, skip, ok bool) {
	if isProtobuf(r) {
		st, err := readStruct(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_proto", "invalid protobuf body")
			return msg, false, false
		}
		m, err := inboundFromStruct(st)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_proto", err.Error())
			return msg, false, false
		}
		return m, false, true
	}

	var in inboundJSON
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return msg, false, false
	}
	m, err := in.toMessage()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return msg, false, false
	}
	return m, in.FromMe || in.IsGroup, true
}

func (s *Server) process(w http.ResponseWriter, r *http.Request, msg types.InboundMessage) (types.InboundReply, bool) {
	reply, err := s.messageService.Process(r.Context(), msg)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPhone) {
			writeError(w, http.StatusBadRequest, "invalid_phone", err.Error())
			return reply, false
		}
		s.logger.Printf("process error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return reply, false
	}
	return reply, true
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, resp webhookResponse) {
	if isProtobuf(r) {
		st, err := replyToStruct(resp)
		if err != nil {
			s.logger.Printf("reply encode error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
			return
		}
		writeStruct(w, http.StatusOK, st)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
