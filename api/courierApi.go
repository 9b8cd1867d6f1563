package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sharethoughts/courier/clients"
	"github.com/sharethoughts/courier/models"
)

type (
	Api struct {
		Store      clients.StoreClient
		notifier   clients.Notifier
		auth       AuthClient
		templates  models.Templates
		baseLogger *zap.SugaredLogger
		Config     Config
	}
	Config struct {
		WebUrl        string `split_words:"true" required:"true"`
		Protocol      string `default:"https"`
		SenderAddress string `split_words:"true" default:"noreply@sharethoughts.app"`
	}

	// this just makes it easier to bind a handler for the Handle function
	varsHandler func(http.ResponseWriter, *http.Request, map[string]string)
)

// AuthClient is the surface of the external auth service the handlers need.
type AuthClient interface {
	CheckToken(ctx context.Context, token string) (*models.TokenData, error)
	GetUserByEmail(ctx context.Context, email, token string) (*models.UserData, error)
}

const (
	STATUS_ERR_DECODING_BODY      = "Error decoding the request body"
	STATUS_ERR_FINDING_DOCUMENT   = "Error finding the document"
	STATUS_ERR_FINDING_INVITATION = "Error finding the invitation"
	STATUS_ERR_FINDING_USER       = "Error finding the user"
	STATUS_ERR_SAVING_DOCUMENT    = "Error saving the document"
	STATUS_ERR_SAVING_INVITATION  = "Error saving the invitation"
	STATUS_ERR_SENDING_EMAIL      = "Error sending email"
	STATUS_ERR_VERIFYING_TOKEN    = "Error verifying the authorization token"

	STATUS_INVALID_TOKEN = "The authorization token was invalid"
	STATUS_NO_TOKEN      = "No authorization token was found"
	STATUS_OK            = "OK"
	STATUS_UNAUTHORIZED  = "Not authorized for requested operation"
)

func NewApi(
	cfg Config,
	store clients.StoreClient,
	ntf clients.Notifier,
	auth AuthClient,
	templates models.Templates,
	logger *zap.SugaredLogger,
) *Api {
	return &Api{
		Store:      store,
		Config:     cfg,
		notifier:   ntf,
		auth:       auth,
		templates:  templates,
		baseLogger: logger,
	}
}

func (a *Api) getWebURL(req *http.Request) string {
	if a.Config.WebUrl == "" {
		host := req.Header.Get("Host")
		return a.Config.Protocol + "://" + host
	}
	return a.Config.WebUrl
}

func apiConfigProvider() (Config, error) {
	var config Config
	err := envconfig.Process("courier", &config)
	if err != nil {
		return Config{}, err
	}
	return config, nil
}

func routerProvider(api *Api) *mux.Router {
	rtr := mux.NewRouter()
	api.SetHandlers("", rtr)
	return rtr
}

// RouterModule build a router
var RouterModule = fx.Options(fx.Provide(routerProvider, apiConfigProvider))

type ctxLoggerKey struct{}

func (a *Api) logger(ctx context.Context) *zap.SugaredLogger {
	if logger, ok := ctx.Value(ctxLoggerKey{}).(*zap.SugaredLogger); ok {
		return logger
	}
	return a.cloneLogger()
}

func (a *Api) cloneLogger() *zap.SugaredLogger {
	return a.baseLogger.WithOptions()
}

func (a *Api) ctxLoggerHandler(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origCtx := r.Context()
		ctxLog := a.cloneLogger()
		ctxWithLog := context.WithValue(origCtx, ctxLoggerKey{}, ctxLog)
		rWithLog := r.WithContext(ctxWithLog)
		h.ServeHTTP(w, rWithLog)
	})
}

// addPathVarToLogger adds a request's path variable to the logging context.
//
// It uses the first case-insensitive match of name it finds, additional occurrences of name are
// ignored.
func (a *Api) addPathVarToLogger(name string) mux.MiddlewareFunc {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, orig *http.Request) {
			vars := mux.Vars(orig)
			next := orig
			for key := range vars {
				if !strings.EqualFold(key, name) {
					continue
				}
				ctxLog := a.logger(orig.Context()).With(zap.String(key, vars[key]))
				ctxWithLog := context.WithValue(orig.Context(), ctxLoggerKey{}, ctxLog)
				next = orig.WithContext(ctxWithLog)
				break
			}
			h.ServeHTTP(w, next)
		})
	}
}

// corsHandler answers cross-origin preflights and marks every response on
// the public invitation endpoints as callable from any origin. The token in
// the request body is the credential, so the origin carries no trust.
func corsHandler(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}

func (a *Api) SetHandlers(prefix string, rtr *mux.Router) {
	rtr.Use(mux.MiddlewareFunc(a.ctxLoggerHandler))
	rtr.Use(a.addPathVarToLogger("documentid"))
	rtr.Use(a.addPathVarToLogger("userid"))

	c := rtr.PathPrefix("/confirm").Subrouter()

	c.HandleFunc("/status", a.IsReady).Methods("GET")
	rtr.HandleFunc("/status", a.IsReady).Methods("GET")

	c.HandleFunc("/ready", a.IsReady).Methods("GET")
	rtr.HandleFunc("/ready", a.IsReady).Methods("GET")

	c.HandleFunc("/live", a.IsAlive).Methods("GET")
	rtr.HandleFunc("/live", a.IsAlive).Methods("GET")

	// vars is a shorthand for applying the varsHandler to an handler.
	type vars = varsHandler

	// POST /confirm/send/invite
	csend := rtr.PathPrefix("/confirm/send").Subrouter()
	csend.Handle("/invite", vars(a.SendInvitation)).Methods("POST")

	send := rtr.PathPrefix("/send").Subrouter()
	send.Handle("/invite", vars(a.SendInvitation)).Methods("POST")

	// POST /confirm/verify
	// POST /confirm/accept
	// Both are reached from the emailed link without a session, so they
	// carry permissive CORS and answer OPTIONS preflights.
	public := rtr.PathPrefix("/confirm").Subrouter()
	public.Use(mux.MiddlewareFunc(corsHandler))
	public.Handle("/verify", vars(a.VerifyInvitation)).Methods(http.MethodPost, http.MethodOptions)
	public.Handle("/accept", vars(a.CompleteInvitation)).Methods(http.MethodPost, http.MethodOptions)

	// GET /confirm/invite/:userid
	// GET /confirm/invitations/:userid
	c.Handle("/invite/{userid}", vars(a.GetSentInvitations)).Methods("GET")
	c.Handle("/invitations/{userid}", vars(a.GetReceivedInvitations)).Methods("GET")

	rtr.Handle("/invite/{userid}", vars(a.GetSentInvitations)).Methods("GET")
	rtr.Handle("/invitations/{userid}", vars(a.GetReceivedInvitations)).Methods("GET")

	// Documents the invitations grant access to.
	rtr.Handle("/documents", vars(a.CreateDocument)).Methods("POST")
	rtr.Handle("/documents", vars(a.ListDocuments)).Methods("GET")
	rtr.Handle("/documents/{documentid}", vars(a.GetDocument)).Methods("GET")
	rtr.Handle("/documents/{documentid}", vars(a.DeleteDocument)).Methods("DELETE")
	rtr.Handle("/documents/{documentid}/content", vars(a.SaveDocumentContent)).Methods("PUT")

	// POST /users/lookup
	rtr.Handle("/users/lookup", vars(a.LookupUser)).Methods("POST")
}

func (h varsHandler) ServeHTTP(res http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	h(res, req, vars)
}

func (a *Api) IsReady(res http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	if err := a.Store.Ping(ctx); err != nil {
		a.sendError(ctx, res, http.StatusInternalServerError, "store connectivity failure", err)
		return
	}
	res.WriteHeader(http.StatusOK)
	res.Write([]byte(STATUS_OK))
}

func (a *Api) IsAlive(res http.ResponseWriter, req *http.Request) {
	res.WriteHeader(http.StatusOK)
	res.Write([]byte(STATUS_OK))
}

// find and validate the session token
//
// The token's userID field is added to the context's logger.
func (a *Api) token(res http.ResponseWriter, req *http.Request) *models.TokenData {
	ctx := req.Context()
	token := bearerToken(req)
	if token == "" {
		a.sendError(ctx, res, http.StatusUnauthorized, STATUS_NO_TOKEN)
		return nil
	}

	td, err := a.auth.CheckToken(ctx, token)
	if err != nil {
		a.sendError(ctx, res, http.StatusInternalServerError, STATUS_ERR_VERIFYING_TOKEN, err)
		return nil
	}
	if td == nil {
		a.sendError(ctx, res, http.StatusForbidden, STATUS_INVALID_TOKEN)
		return nil
	}

	ctxLog := a.logger(ctx).With(zap.String("token's userID", td.UserID))
	*req = *req.WithContext(context.WithValue(ctx, ctxLoggerKey{}, ctxLog))

	return td
}

func bearerToken(req *http.Request) string {
	header := req.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

// checkInvitation runs the shared verify/complete checks in their fixed
// order: existence, then status, then identity, then expiry. Status comes
// before identity so a forged email cannot learn whether a non-pending
// invitation exists; identity comes before expiry so a mismatched caller
// cannot trigger the expiry transition. When the invitation is past its
// expiry the pending record is transitioned to expired before failing.
//
// Returns the invitation and 0 on success, or a status code and message.
func (a *Api) checkInvitation(ctx context.Context, token, email string) (*models.Invitation, int, string) {
	invitation, err := a.Store.FindInvitation(ctx, token)
	if err != nil {
		a.logger(ctx).With(zap.Error(err)).Error(STATUS_ERR_FINDING_INVITATION)
		return nil, http.StatusInternalServerError, STATUS_ERR_FINDING_INVITATION
	}
	if invitation == nil {
		return nil, http.StatusNotFound, statusInvitationNotFound
	}
	if invitation.Status != models.StatusPending {
		return nil, http.StatusBadRequest, statusInvitationStatus
	}
	// The match is case-sensitive by design, the address is compared to
	// exactly what the inviter entered.
	if invitation.Email != email {
		return nil, http.StatusForbidden, statusEmailMismatch
	}
	if invitation.IsExpired() {
		if _, err := a.Store.ExpireInvitation(ctx, token, time.Now().UTC()); err != nil {
			a.logger(ctx).With(zap.Error(err)).Warn("expiring invitation")
		}
		return nil, http.StatusBadRequest, statusInvitationExpired
	}
	return invitation, 0, ""
}

func (a *Api) sendModelAsResWithStatus(ctx context.Context, res http.ResponseWriter, model interface{}, statusCode int) {
	if jsonDetails, err := json.Marshal(model); err != nil {
		a.logger(ctx).With("model", model, zap.Error(err)).Errorf("trying to send model")
		http.Error(res, "Error marshaling data for response", http.StatusInternalServerError)
	} else {
		res.Header().Set("content-type", "application/json")
		res.WriteHeader(statusCode)
		res.Write(jsonDetails)
	}
}

// resultResponse is the envelope for operations with a success flag.
type resultResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func (a *Api) sendError(ctx context.Context, res http.ResponseWriter, statusCode int, reason string, extras ...interface{}) {
	a.sendErrorLog(ctx, statusCode, reason, extras...)
	a.sendModelAsResWithStatus(ctx, res, resultResponse{Success: false, Message: reason}, statusCode)
}

func (a *Api) sendErrorLog(ctx context.Context, code int, reason string, extras ...interface{}) {
	details := splitExtrasAndErrorsAndFields(extras)
	log := a.logger(ctx).WithOptions(zap.AddCallerSkip(2)).
		Desugar().With(details.Fields...).Sugar().
		With(zap.Int("code", code))
	if len(details.NonErrors) > 0 {
		log = log.With(zap.Array("extras", zapArrayAny(details.NonErrors)))
	}
	if len(details.Errors) == 1 {
		log = log.With(zap.Error(details.Errors[0]))
	} else if len(details.Errors) > 1 {
		log = log.With(zap.Errors("errors", details.Errors))
	}
	if code < http.StatusInternalServerError || len(details.Errors) == 0 {
		// if there are no errors, use info to skip the stack trace, as it's
		// probably not useful
		log.Info(reason)
	} else {
		log.Error(reason)
	}
}

type extrasDetails struct {
	Errors    []error
	NonErrors []interface{}
	Fields    []zap.Field
}

func splitExtrasAndErrorsAndFields(extras []interface{}) extrasDetails {
	details := extrasDetails{
		Errors:    []error{},
		NonErrors: []interface{}{},
		Fields:    []zap.Field{},
	}
	for _, extra := range extras {
		if err, ok := extra.(error); ok {
			if err != nil {
				details.Errors = append(details.Errors, err)
			}
		} else if field, ok := extra.(zap.Field); ok {
			details.Fields = append(details.Fields, field)
		} else if extraErrs, ok := extra.([]error); ok {
			if len(extraErrs) > 0 {
				details.Errors = append(details.Errors, extraErrs...)
			}
		} else {
			details.NonErrors = append(details.NonErrors, extra)
		}
	}
	return details
}

// zapArrayAny helps convert extras to strings for inclusion in a structured
// log message.
func zapArrayAny(extras []interface{}) zapcore.ArrayMarshalerFunc {
	return zapcore.ArrayMarshalerFunc(func(enc zapcore.ArrayEncoder) error {
		for _, extra := range extras {
			enc.AppendString(fmt.Sprintf("%v", extra))
		}
		return nil
	})
}
