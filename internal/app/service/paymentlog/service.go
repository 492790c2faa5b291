package paymentlog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/propmarket/portal/internal/models"
	"github.com/propmarket/portal/pkg/logctx"
	"github.com/propmarket/portal/pkg/tool"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service keeps the reconciliation trail of verify calls and webhook
// deliveries against the gateway.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

// Save asynchronously persists a payment event log. Nil input is ignored.
func (s *Service) Save(ctx context.Context, entry *models.PaymentEventLog) {
	go func() {
		if entry == nil {
			return
		}
		if entry.ID == "" {
			entry.ID = tool.GenerateUUIDV7()
		}
		if err := s.db.Save(entry).Error; err != nil {
			logctx.FromCtx(ctx, s.log).Errorf("failed to save payment event log: %v", err)
		}
	}()
}

// Received builds a log entry for an incoming verify call or webhook.
func Received(source, orderID string, userID *string, traceID string, payload any) *models.PaymentEventLog {
	raw, _ := json.Marshal(payload)
	return &models.PaymentEventLog{
		Source:    source,
		UserID:    userID,
		TraceID:   traceID,
		OrderID:   orderID,
		EventTime: time.Now(),
		Data:      datatypes.JSON(raw),
		Status:    models.PaymentEventLogStatusReceived,
	}
}

// Outcome builds the terminal entry for a handled (or failed) event.
func Outcome(received *models.PaymentEventLog, result any, handleErr error) *models.PaymentEventLog {
	resMap := map[string]any{"result": result}
	status := models.PaymentEventLogStatusHandled
	if handleErr != nil {
		resMap["error"] = handleErr.Error()
		status = models.PaymentEventLogStatusHandleFailed
	}
	resBytes, _ := json.Marshal(resMap)
	res := datatypes.JSON(resBytes)
	return &models.PaymentEventLog{
		Source:    received.Source,
		UserID:    received.UserID,
		TraceID:   received.TraceID,
		OrderID:   received.OrderID,
		EventTime: time.Now(),
		Data:      received.Data,
		Result:    &res,
		Status:    status,
	}
}

var Module = fx.Options(
	fx.Provide(New),
)
