package http

import (
	"errors"
	"net/http"

	"lending-backend/internal/adapter/middleware"
	domainChat "lending-backend/internal/domain/livechat"
	domainDisb "lending-backend/internal/domain/disbursement"
	domainLoan "lending-backend/internal/domain/loan"
	domainNotification "lending-backend/internal/domain/notification"
	domainPayment "lending-backend/internal/domain/payment"
	domainReferral "lending-backend/internal/domain/referral"
	domainSetting "lending-backend/internal/domain/setting"
	domainSupport "lending-backend/internal/domain/support"
	domainUser "lending-backend/internal/domain/user"
	ucApproval "lending-backend/internal/usecase/approval"
	ucAuth "lending-backend/internal/usecase/auth"
	ucDisb "lending-backend/internal/usecase/disbursement"
	ucChat "lending-backend/internal/usecase/livechat"
	ucPayment "lending-backend/internal/usecase/payment"
	ucSupport "lending-backend/internal/usecase/support"

	"github.com/labstack/echo/v4"
)

type errStatus struct {
	err  error
	code int
}

// Map domain errors → HTTP codes. First match wins.
var errTable = []errStatus{
	{domainUser.ErrNotFound, http.StatusNotFound},
	{domainLoan.ErrNotFound, http.StatusNotFound},
	{domainPayment.ErrNotFound, http.StatusNotFound},
	{domainDisb.ErrNotFound, http.StatusNotFound},
	{domainReferral.ErrNotFound, http.StatusNotFound},
	{domainSupport.ErrNotFound, http.StatusNotFound},
	{domainChat.ErrNotFound, http.StatusNotFound},
	{domainNotification.ErrNotFound, http.StatusNotFound},
	{domainSetting.ErrNotFound, http.StatusNotFound},

	{domainUser.ErrInvalidCredentials, http.StatusUnauthorized},
	{ucAuth.ErrInvalidToken, http.StatusUnauthorized},

	{domainLoan.ErrForbidden, http.StatusForbidden},
	{domainSupport.ErrForbidden, http.StatusForbidden},
	{domainChat.ErrForbidden, http.StatusForbidden},
	{domainChat.ErrNotAssigned, http.StatusForbidden},
	{domainUser.ErrInactive, http.StatusForbidden},

	{domainPayment.ErrBadSignature, http.StatusBadRequest},
	{domainLoan.ErrUnknownStatus, http.StatusBadRequest},

	{domainUser.ErrEmailTaken, http.StatusConflict},
	{domainUser.ErrHasActiveLoans, http.StatusConflict},
	{domainLoan.ErrInvalidTransition, http.StatusConflict},
	{domainLoan.ErrAlreadyApproved, http.StatusConflict},
	{domainLoan.ErrActiveApplicationExists, http.StatusConflict},
	{domainLoan.ErrIDNotVerified, http.StatusConflict},
	{domainLoan.ErrIDNotSubmitted, http.StatusConflict},
	{domainLoan.ErrIDAlreadyVerified, http.StatusConflict},
	{domainLoan.ErrFeeNotPaid, http.StatusConflict},
	{domainDisb.ErrAlreadyRequested, http.StatusConflict},
	{domainDisb.ErrInvalidTransition, http.StatusConflict},
	{domainPayment.ErrAlreadyFinal, http.StatusConflict},
	{domainPayment.ErrTxHashUsed, http.StatusConflict},
	{domainPayment.ErrExpired, http.StatusConflict},
	{domainPayment.ErrAlreadyPaid, http.StatusConflict},
	{domainPayment.ErrWrongMethod, http.StatusConflict},
	{domainPayment.ErrWalletNotConfigured, http.StatusConflict},
	{domainSupport.ErrClosed, http.StatusConflict},
	{domainChat.ErrClosed, http.StatusConflict},
	{domainChat.ErrAlreadyHuman, http.StatusConflict},
	{domainReferral.ErrNotQualified, http.StatusConflict},
	{domainReferral.ErrAlreadyReferred, http.StatusConflict},

	{domainLoan.ErrAmountOutOfRange, http.StatusUnprocessableEntity},
	{domainLoan.ErrTermOutOfRange, http.StatusUnprocessableEntity},
	{domainLoan.ErrApprovedExceedsRequest, http.StatusUnprocessableEntity},
	{domainUser.ErrUnknownReferral, http.StatusUnprocessableEntity},
	{domainReferral.ErrSelfReferral, http.StatusUnprocessableEntity},
	{domainSetting.ErrUnknownKey, http.StatusUnprocessableEntity},
	{domainSetting.ErrInvalidValue, http.StatusUnprocessableEntity},
	{domainPayment.ErrUnsupportedCurrency, http.StatusUnprocessableEntity},
	{ucApproval.ErrReasonRequired, http.StatusUnprocessableEntity},
	{ucPayment.ErrReasonRequired, http.StatusUnprocessableEntity},
	{ucPayment.ErrTxHashRequired, http.StatusUnprocessableEntity},
	{ucDisb.ErrReasonRequired, http.StatusUnprocessableEntity},
	{ucDisb.ErrBankDetails, http.StatusUnprocessableEntity},
	{ucSupport.ErrEmpty, http.StatusUnprocessableEntity},
	{ucChat.ErrEmptyMessage, http.StatusUnprocessableEntity},

	{ucPayment.ErrGateway, http.StatusBadGateway},
}

func statusFor(err error) (int, bool) {
	for _, e := range errTable {
		if errors.Is(err, e.err) {
			return e.code, true
		}
	}
	return 0, false
}

// fail writes err as an ErrorResponse. Unmapped errors become a generic 500;
// the cause is left on the context for the request logger.
func fail(c echo.Context, err error) error {
	if code, ok := statusFor(err); ok {
		return c.JSON(code, ErrorResponse{Error: err.Error()})
	}
	c.Set(middleware.ErrorKey, err)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}
