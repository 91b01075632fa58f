package db

import (
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lending-backend/internal/domain/approval"
	"lending-backend/internal/domain/audit"
	"lending-backend/internal/domain/disbursement"
	"lending-backend/internal/domain/livechat"
	"lending-backend/internal/domain/loan"
	"lending-backend/internal/domain/notification"
	"lending-backend/internal/domain/payment"
	"lending-backend/internal/domain/referral"
	"lending-backend/internal/domain/setting"
	"lending-backend/internal/domain/support"
	"lending-backend/internal/domain/user"
)

func OpenGorm(dsn string, log *logrus.Logger) (*gorm.DB, error) {
	return OpenGormWithDialector(mysql.Open(dsn), gormLogger(log))
}

// OpenGormWithDialector opens and pings. A nil logger silences gorm.
func OpenGormWithDialector(dial gorm.Dialector, l logger.Interface) (*gorm.DB, error) {
	if l == nil {
		l = logger.Discard
	}
	db, err := gorm.Open(dial, &gorm.Config{Logger: l})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

func gormLogger(log *logrus.Logger) logger.Interface {
	if log == nil {
		return logger.Discard
	}
	level := logger.Warn
	switch {
	case log.IsLevelEnabled(logrus.DebugLevel):
		level = logger.Info
	case !log.IsLevelEnabled(logrus.WarnLevel):
		level = logger.Error
	}
	return logger.New(log, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

// Models lists every table the service owns, in dependency order.
func Models() []any {
	return []any{
		&user.User{},
		&loan.Application{},
		&approval.Approval{},
		&payment.Payment{},
		&disbursement.Disbursement{},
		&referral.Referral{},
		&support.Message{},
		&support.Reply{},
		&livechat.Conversation{},
		&livechat.Message{},
		&setting.SystemSetting{},
		&audit.Log{},
		&notification.Notification{},
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
