package dig_container

import (
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	echoapi "github.com/Junosprite007/mod-equipmentcheckout/apps/api/echo"
	"github.com/Junosprite007/mod-equipmentcheckout/core"
	"github.com/Junosprite007/mod-equipmentcheckout/core/agreement"
	"github.com/Junosprite007/mod-equipmentcheckout/core/course"
	"github.com/Junosprite007/mod-equipmentcheckout/core/family"
	"github.com/Junosprite007/mod-equipmentcheckout/core/partnership"
	"github.com/Junosprite007/mod-equipmentcheckout/core/profile"
	"github.com/Junosprite007/mod-equipmentcheckout/core/user"
	"github.com/Junosprite007/mod-equipmentcheckout/core/vcc"
	emailsvc "github.com/Junosprite007/mod-equipmentcheckout/services/email"
	logsvc "github.com/Junosprite007/mod-equipmentcheckout/services/logger"
	"github.com/Junosprite007/mod-equipmentcheckout/services/messaging"
	"github.com/Junosprite007/mod-equipmentcheckout/storage/database"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type repositories struct {
	dig.Out

	Users        user.Repository
	Courses      course.Repository
	Profiles     profile.Repository
	Partnerships partnership.Repository
	Agreements   agreement.Repository
	VCC          vcc.Repository
}

type importerParams struct {
	dig.In

	Conf       *core.Config
	Logger     core.Logger
	Users      user.Service
	Enroller   *course.Enroller
	Profiles   *profile.Service
	Validate   *validator.Validate
	Translator ut.Translator
	Mailer     core.EmailService
	Publisher  family.Publisher `optional:"true"`
	Metrics    *family.Metrics
}

type serverParams struct {
	dig.In

	Conf           *core.Config
	Logger         core.Logger
	Validate       *validator.Validate
	Translator     ut.Translator
	UserSvc        user.Service
	Importer       *family.Importer
	PartnershipSvc *partnership.Service
	AgreementSvc   *agreement.Service
	VCCSvc         *vcc.Service
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newStorage(conf *core.Config, loggerParam DBLoggerParam) database.Repositories {
	repos, err := database.Setup(conf)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return repos
}

func newRepositories(repos database.Repositories) repositories {
	return repositories{
		Users:        repos.Users,
		Courses:      repos.Courses,
		Profiles:     repos.Profiles,
		Partnerships: repos.Partnerships,
		Agreements:   repos.Agreements,
		VCC:          repos.VCC,
	}
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := core.NewValidator(translator)
	user.InitValidators(validate, translator)
	agreement.InitValidators(validate, translator)
	return validate
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

// newPublisher connects to RabbitMQ when configured; imports run without events otherwise.
func newPublisher(conf *core.Config, logger core.Logger) *messaging.Publisher {
	if conf.AMQP.URL == "" {
		return nil
	}
	pub, err := messaging.NewPublisher(conf.AMQP, logger)
	if err != nil {
		logger.Error(fmt.Sprintf("connecting to rabbitmq, import events disabled: %v", err), err)
		return nil
	}
	return pub
}

func newFamilyPublisher(pub *messaging.Publisher) family.Publisher {
	if pub == nil {
		return nil
	}
	return pub
}

func newMetrics() *family.Metrics {
	return family.NewMetrics(prometheus.DefaultRegisterer)
}

func newImporter(p importerParams) (*family.Importer, error) {
	return family.NewImporter(family.Deps{
		Users:      p.Users,
		Enroller:   p.Enroller,
		Profiles:   p.Profiles,
		Validate:   p.Validate,
		Translator: p.Translator,
		Logger:     p.Logger,
		Conf:       p.Conf,
		Mailer:     p.Mailer,
		Publisher:  p.Publisher,
		Metrics:    p.Metrics,
	})
}

func newPartnershipService(
	repo partnership.Repository,
	users user.Service,
	courses course.Repository,
	validate *validator.Validate,
	translator ut.Translator,
) *partnership.Service {
	return partnership.NewService(repo, users, courses, validate, translator)
}

func newVCCService(conf *core.Config, repo vcc.Repository, users user.Service, translator ut.Translator) *vcc.Service {
	return vcc.NewService(repo, users, translator, conf.Location())
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:           p.Conf,
		Logger:         p.Logger,
		Validate:       p.Validate,
		Translator:     p.Translator,
		UserSvc:        p.UserSvc,
		Importer:       p.Importer,
		PartnershipSvc: p.PartnershipSvc,
		AgreementSvc:   p.AgreementSvc,
		VCCSvc:         p.VCCSvc,
	})
}

// New returns a new dependency injection dig.Container
func New(newConfig func() *core.Config) *dig.Container {
	c := dig.New()

	must(c.Provide(newConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStorage))
	must(c.Provide(newRepositories))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(newEmailService))
	must(c.Provide(newPublisher))
	must(c.Provide(newFamilyPublisher))
	must(c.Provide(newMetrics))
	must(c.Provide(user.NewService))
	must(c.Provide(course.NewEnroller))
	must(c.Provide(profile.NewService))
	must(c.Provide(newImporter))
	must(c.Provide(newPartnershipService))
	must(c.Provide(agreement.NewService))
	must(c.Provide(newVCCService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
