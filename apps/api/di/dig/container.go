package dig_container

import (
	"context"
	"log"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/admissions/apps/api/echo"
	"github.com/trezcool/admissions/core"
	"github.com/trezcool/admissions/core/catalog"
	"github.com/trezcool/admissions/core/chat"
	"github.com/trezcool/admissions/core/user"
	chatsvc "github.com/trezcool/admissions/services/chat"
	emailsvc "github.com/trezcool/admissions/services/email"
	logsvc "github.com/trezcool/admissions/services/logger"
	"github.com/trezcool/admissions/storage/database"
	inmemdb "github.com/trezcool/admissions/storage/database/inmem"
	sqlxrepos "github.com/trezcool/admissions/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// Closer releases the storage resources.
type Closer func() error

// Repositories are either all in memory or all on postgres.
type Repositories struct {
	dig.Out
	Users            user.Repository
	Universities     catalog.Repository[catalog.University]
	Majors           catalog.Repository[catalog.Major]
	Programs         catalog.Repository[catalog.Program]
	Scholarships     catalog.Repository[catalog.Scholarship]
	AdmissionMethods catalog.Repository[catalog.AdmissionMethod]
	News             catalog.Repository[catalog.News]
	Closer           Closer
}

func newLogger(conf *core.Config) (core.Logger, error) {
	return logsvc.NewLogger(conf)
}

func newDBLogger(conf *core.Config) (core.Logger, error) {
	return logsvc.NewLogger(conf, "db")
}

func newRepositories(conf *core.Config, loggerParam DBLoggerParam) Repositories {
	if conf.Database.InMemory {
		db := inmemdb.Open()
		return Repositories{
			Users:            inmemdb.NewUserRepository(db),
			Universities:     inmemdb.NewUniversityRepository(db),
			Majors:           inmemdb.NewMajorRepository(db),
			Programs:         inmemdb.NewProgramRepository(db),
			Scholarships:     inmemdb.NewScholarshipRepository(db),
			AdmissionMethods: inmemdb.NewAdmissionMethodRepository(db),
			News:             inmemdb.NewNewsRepository(db),
			Closer:           func() error { return nil },
		}
	}

	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(context.Background(), conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db.DB); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal("setting up database", errors.Wrap(err, "setting up database"))
	}
	return Repositories{
		Users:            sqlxrepos.NewUserRepository(db),
		Universities:     sqlxrepos.NewUniversityRepository(db),
		Majors:           sqlxrepos.NewMajorRepository(db),
		Programs:         sqlxrepos.NewProgramRepository(db),
		Scholarships:     sqlxrepos.NewScholarshipRepository(db),
		AdmissionMethods: sqlxrepos.NewAdmissionMethodRepository(db),
		News:             sqlxrepos.NewNewsRepository(db),
		Closer:           db.Close,
	}
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug || conf.SendgridApiKey == "" {
		return emailsvc.NewConsoleService(conf, log.Writer(), logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newValidator(conf *core.Config) (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator, conf)
	user.RegisterValidators(validate, translator)
	return validate, translator
}

func newChatService(conf *core.Config, logger core.Logger) chat.Service {
	return chat.NewService(chatsvc.NewHTTPClient(conf.Chat, logger), conf.Chat)
}

type catalogParams struct {
	dig.In
	Universities     catalog.Repository[catalog.University]
	Majors           catalog.Repository[catalog.Major]
	Programs         catalog.Repository[catalog.Program]
	Scholarships     catalog.Repository[catalog.Scholarship]
	AdmissionMethods catalog.Repository[catalog.AdmissionMethod]
	News             catalog.Repository[catalog.News]
	Validate         *validator.Validate
}

func newCatalogServices(p catalogParams) echoapi.CatalogServices {
	return echoapi.CatalogServices{
		Universities:     catalog.NewService(catalog.UniversityKind, p.Universities, p.Universities, p.Validate),
		Majors:           catalog.NewService(catalog.MajorKind, p.Majors, p.Universities, p.Validate),
		Programs:         catalog.NewService(catalog.ProgramKind, p.Programs, p.Universities, p.Validate),
		Scholarships:     catalog.NewService(catalog.ScholarshipKind, p.Scholarships, p.Universities, p.Validate),
		AdmissionMethods: catalog.NewService(catalog.AdmissionMethodKind, p.AdmissionMethods, p.Universities, p.Validate),
		News:             catalog.NewService(catalog.NewsKind, p.News, p.Universities, p.Validate),
	}
}

type serverParams struct {
	dig.In
	Conf       *core.Config
	Logger     core.Logger
	UserSvc    user.Service
	Catalog    echoapi.CatalogServices
	ChatSvc    chat.Service
	Validate   *validator.Validate
	Translator ut.Translator
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:       p.Conf,
		Logger:     p.Logger,
		UserSvc:    p.UserSvc,
		Catalog:    p.Catalog,
		ChatSvc:    p.ChatSvc,
		Validate:   p.Validate,
		Translator: p.Translator,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newRepositories))
	must(c.Provide(newEmailService))
	must(c.Provide(newValidator))
	must(c.Provide(user.NewService))
	must(c.Provide(newCatalogServices))
	must(c.Provide(newChatService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
