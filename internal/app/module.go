package app

import (
	"time"

	"github.com/propmarket/portal/internal/app/api/server"
	"github.com/propmarket/portal/internal/app/service/auth"
	"github.com/propmarket/portal/internal/app/service/mailer"
	"github.com/propmarket/portal/internal/app/service/paymentlog"
	"github.com/propmarket/portal/internal/app/service/registration"
	"github.com/propmarket/portal/internal/app/service/renewal"
	"github.com/propmarket/portal/internal/app/service/sweep"
	"github.com/propmarket/portal/internal/platform/db"
	"github.com/propmarket/portal/internal/platform/gateway"
	"github.com/propmarket/portal/internal/repository"
	"github.com/propmarket/portal/pkg/config"
	"github.com/propmarket/portal/pkg/logger"
	"github.com/propmarket/portal/pkg/metrics"

	"go.uber.org/fx"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	metrics.Module,
	db.Module,
	repository.Module,
	gateway.Module,
	auth.Module,
	mailer.Module,
	paymentlog.Module,
	registration.Module,
	renewal.Module,
	sweep.Module,
	server.Module,
)
