package http

import (
	"time"

	"lending-backend/internal/adapter/middleware"
	domainUser "lending-backend/internal/domain/user"
	"lending-backend/internal/infrastructure/metrics"
	ucAccount "lending-backend/internal/usecase/account"
	ucApproval "lending-backend/internal/usecase/approval"
	ucAudit "lending-backend/internal/usecase/audit"
	ucAuth "lending-backend/internal/usecase/auth"
	ucDashboard "lending-backend/internal/usecase/dashboard"
	ucDisb "lending-backend/internal/usecase/disbursement"
	ucChat "lending-backend/internal/usecase/livechat"
	ucLoan "lending-backend/internal/usecase/loan"
	ucNotification "lending-backend/internal/usecase/notification"
	ucPayment "lending-backend/internal/usecase/payment"
	ucReferral "lending-backend/internal/usecase/referral"
	ucSetting "lending-backend/internal/usecase/setting"
	ucSupport "lending-backend/internal/usecase/support"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type Deps struct {
	Auth          *ucAuth.Usecase
	Account       *ucAccount.Usecase
	Loans         *ucLoan.Usecase
	Approvals     *ucApproval.Usecase
	Payments      *ucPayment.Usecase
	Disbursements *ucDisb.Usecase
	Referrals     *ucReferral.Usecase
	Support       *ucSupport.Usecase
	Chat          *ucChat.Usecase
	Notifications *ucNotification.Usecase
	Settings      *ucSetting.Usecase
	Audit         *ucAudit.Usecase
	Dashboard     *ucDashboard.Usecase

	Checks         []Check
	Hub            Subscriber
	Redis          *redis.Client
	IdempotencyTTL time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	Log            *logrus.Logger
}

func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.Use(
		echomw.Recover(),
		echomw.RequestID(),
		middleware.RequestLogger(d.Log),
		metrics.Middleware(),
	)

	h := NewHandler(d.Checks...)
	authH := NewAuthHandler(d.Auth)
	accountH := NewAccountHandler(d.Account)
	loanH := NewLoanHandler(d.Loans)
	approvalH := NewApprovalHandler(d.Approvals)
	paymentH := NewPaymentHandler(d.Payments)
	disbH := NewDisbursementHandler(d.Disbursements)
	referralH := NewReferralHandler(d.Referrals)
	supportH := NewSupportHandler(d.Support)
	chatH := NewChatHandler(d.Chat, d.Hub, d.Log)
	notifH := NewNotificationHandler(d.Notifications)
	adminH := NewAdminHandler(d.Settings, d.Audit, d.Dashboard)

	authLimit := middleware.NewLimiter(d.RateLimitRPS, d.RateLimitBurst).Middleware()
	chatLimit := middleware.NewLimiter(d.RateLimitRPS, d.RateLimitBurst).Middleware()
	idem := middleware.Idempotency(d.Redis, d.IdempotencyTTL, d.Log)
	authed := middleware.RequireAuth(d.Auth)

	// public
	e.GET("/health", h.Health)
	e.GET("/metrics", metrics.Handler())
	e.POST("/webhooks/card", paymentH.CardWebhook)
	a := e.Group("/auth", authLimit)
	a.POST("/register", authH.Register)
	a.POST("/login", authH.Login)

	// borrower
	me := e.Group("/me", authed)
	me.GET("", accountH.Profile)
	me.PUT("", accountH.UpdateProfile)
	me.PUT("/kyc", accountH.UpdateKYC)
	me.PUT("/password", accountH.ChangePassword)
	me.DELETE("", accountH.Delete)

	loans := e.Group("/loans", authed)
	loans.POST("", loanH.Apply, idem)
	loans.GET("", loanH.ListMine)
	loans.GET("/quote", loanH.Quote)
	loans.GET("/:application_id", loanH.Get)
	loans.POST("/:application_id/documents", loanH.UploadDocuments)
	loans.POST("/:application_id/payments/card", paymentH.InitiateCard, idem)
	loans.POST("/:application_id/payments/crypto", paymentH.InitiateCrypto, idem)
	loans.GET("/:application_id/payments", paymentH.ListForLoan)
	loans.POST("/:application_id/disbursement", disbH.Request, idem)
	loans.GET("/:application_id/disbursement", disbH.GetForLoan)

	pay := e.Group("/payments", authed)
	pay.GET("/:payment_id", paymentH.Get)
	pay.POST("/:payment_id/tx", paymentH.SubmitTx, idem)
	pay.POST("/:payment_id/recheck", paymentH.Recheck)

	e.GET("/referrals", referralH.Mine, authed)

	sup := e.Group("/support", authed)
	sup.POST("", supportH.Create)
	sup.GET("", supportH.ListMine)
	sup.GET("/:message_id", supportH.Get)
	sup.POST("/:message_id/replies", supportH.Reply)
	sup.POST("/:message_id/close", supportH.Close)

	chat := e.Group("/chat", authed)
	chat.POST("", chatH.Start, chatLimit)
	chat.GET("", chatH.ListMine)
	chat.GET("/:conversation_id/messages", chatH.Messages)
	chat.POST("/:conversation_id/messages", chatH.Post, chatLimit)
	chat.POST("/:conversation_id/agent", chatH.RequestAgent)
	chat.POST("/:conversation_id/close", chatH.Close)
	chat.GET("/:conversation_id/stream", chatH.Stream)

	notif := e.Group("/notifications", authed)
	notif.GET("", notifH.Inbox)
	notif.GET("/unread-count", notifH.UnreadCount)
	notif.POST("/:id/read", notifH.MarkRead)
	notif.POST("/read-all", notifH.MarkAllRead)

	// admin
	adm := e.Group("/admin", authed, middleware.RequireRole(domainUser.RoleAdmin))
	adm.GET("/applications", loanH.AdminList)
	adm.GET("/applications/:application_id", loanH.Get)
	adm.POST("/applications/:application_id/review", approvalH.StartReview)
	adm.POST("/applications/:application_id/approve", approvalH.Approve)
	adm.POST("/applications/:application_id/reject", approvalH.Reject)
	adm.POST("/applications/:application_id/verify-id", approvalH.VerifyID)
	adm.POST("/applications/:application_id/reject-id", approvalH.RejectID)
	adm.GET("/applications/:application_id/payments", paymentH.ListForLoan)
	adm.POST("/payments/:payment_id/confirm", paymentH.AdminConfirm)
	adm.POST("/payments/:payment_id/fail", paymentH.AdminFail)
	adm.GET("/disbursements", disbH.AdminList)
	adm.POST("/disbursements/:disbursement_id/processing", disbH.MarkProcessing)
	adm.POST("/disbursements/:disbursement_id/complete", disbH.Complete)
	adm.POST("/disbursements/:disbursement_id/fail", disbH.Fail)
	adm.GET("/referrals", referralH.AdminList)
	adm.POST("/referrals/:id/reward", referralH.Reward)
	adm.GET("/support", supportH.AdminList)
	adm.GET("/support/:message_id", supportH.Get)
	adm.POST("/support/:message_id/replies", supportH.Reply)
	adm.POST("/support/:message_id/close", supportH.Close)
	adm.GET("/chat", chatH.Queue)
	adm.GET("/chat/:conversation_id/messages", chatH.Messages)
	adm.POST("/chat/:conversation_id/join", chatH.AgentJoin)
	adm.POST("/chat/:conversation_id/messages", chatH.AgentReply)
	adm.POST("/chat/:conversation_id/close", chatH.Close)
	adm.GET("/chat/:conversation_id/stream", chatH.Stream)
	adm.GET("/settings", adminH.ListSettings)
	adm.PUT("/settings/:key", adminH.UpdateSetting)
	adm.GET("/audit", adminH.ListAudit)
	adm.GET("/dashboard", adminH.Dashboard)

	return e
}
