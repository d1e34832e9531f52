package family

import (
	"context"
	"sync"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
	"github.com/Junosprite007/mod-equipmentcheckout/core/course"
	"github.com/Junosprite007/mod-equipmentcheckout/core/profile"
	"github.com/Junosprite007/mod-equipmentcheckout/core/user"
	inmemdb "github.com/Junosprite007/mod-equipmentcheckout/storage/database/inmem"
	"github.com/Junosprite007/mod-equipmentcheckout/tests"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

type recordingMailer struct {
	mu       sync.Mutex
	messages []*core.EmailMessage
}

func (m *recordingMailer) SendMessages(messages ...*core.EmailMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, messages...)
}

// failingUsers fails to create accounts for the given first name.
type failingUsers struct {
	user.Service
	firstName string
}

func (svc failingUsers) Create(ctx context.Context, nu user.NewUser) (user.User, error) {
	if nu.FirstName == svc.firstName {
		return user.User{}, errors.New("boom")
	}
	return svc.Service.Create(ctx, nu)
}

type fixture struct {
	conf       *core.Config
	translator ut.Translator
	usrRepo    user.Repository
	crsRepo    course.Repository
	prfRepo    profile.Repository
	users      user.Service
	metrics    *Metrics
	logger     *testutil.Logger
	publisher  *recordingPublisher
	mailer     *recordingMailer
	imp        *Importer
}

func setup(t *testing.T, wrapUsers ...func(user.Service) user.Service) *fixture {
	conf := core.NewTestConfig()
	translator := core.NewTranslator()
	validate := core.NewValidator(translator)
	user.InitValidators(validate, translator)

	db := inmemdb.NewDB()
	f := &fixture{
		conf:       conf,
		translator: translator,
		usrRepo:    inmemdb.NewUserRepository(db),
		crsRepo:    inmemdb.NewCourseRepository(db),
		prfRepo:    inmemdb.NewProfileRepository(db),
		metrics:    NewMetrics(prometheus.NewRegistry()),
		logger:     new(testutil.Logger),
		publisher:  new(recordingPublisher),
		mailer:     new(recordingMailer),
	}
	f.users = user.NewService(f.usrRepo, translator)
	users := f.users
	for _, wrap := range wrapUsers {
		users = wrap(users)
	}

	imp, err := NewImporter(Deps{
		Users:      users,
		Enroller:   course.NewEnroller(f.crsRepo, translator),
		Profiles:   profile.NewService(f.prfRepo),
		Validate:   validate,
		Translator: translator,
		Logger:     f.logger,
		Conf:       conf,
		Mailer:     f.mailer,
		Publisher:  f.publisher,
		Metrics:    f.metrics,
	})
	require.NoError(t, err)
	f.imp = imp
	return f
}

func (f *fixture) t(key string, params ...string) string {
	return core.T(f.translator, key, params...)
}

func (f *fixture) userCount(t *testing.T) int {
	unames, err := f.usrRepo.QueryUsernames(context.Background(), "")
	require.NoError(t, err)
	return len(unames)
}

func (f *fixture) enrollments(t *testing.T, userID int64, role string) []int64 {
	enrollments, err := f.crsRepo.QueryEnrollments(context.Background(), userID)
	require.NoError(t, err)
	ids := make([]int64, 0)
	for _, e := range enrollments {
		if e.Role == role {
			ids = append(ids, e.CourseID)
		}
	}
	return ids
}

func parent(first, last, email string) PersonData {
	return PersonData{Name: NameData{FirstName: first, LastName: last}, Email: email}
}

func student(first, last, email string, courses ...int64) PersonData {
	return PersonData{Name: NameData{FirstName: first, LastName: last}, Email: email, Courses: courses}
}

func TestNewImporter_deps(t *testing.T) {
	translator := core.NewTranslator()
	db := inmemdb.NewDB()
	users := user.NewService(inmemdb.NewUserRepository(db), translator)
	full := func() Deps {
		return Deps{
			Users:      users,
			Enroller:   course.NewEnroller(inmemdb.NewCourseRepository(db), translator),
			Profiles:   profile.NewService(inmemdb.NewProfileRepository(db)),
			Validate:   core.NewValidator(translator),
			Translator: translator,
			Logger:     new(testutil.Logger),
			Conf:       core.NewTestConfig(),
		}
	}

	tests := []struct {
		name    string
		deps    func() Deps
		wantErr string
	}{
		{name: "missing everything", deps: func() Deps { return Deps{} }, wantErr: "Users"},
		{
			name: "typed nil enroller",
			deps: func() Deps {
				d := full()
				d.Enroller = (*course.Enroller)(nil)
				return d
			},
			wantErr: "Enroller",
		},
		{name: "complete", deps: full},
		{
			name: "struct-valued users service",
			deps: func() Deps {
				d := full()
				d.Users = failingUsers{Service: users}
				return d
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			imp, err := NewImporter(tt.deps())
			if tt.wantErr != "" {
				if assert.Error(t, err) {
					assert.Contains(t, err.Error(), tt.wantErr)
				}
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, imp)
		})
	}
}

func TestImporter_Run_singleFamily(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	crs := testutil.CreateCourse(t, f.crsRepo, "Algebra")

	res, err := f.imp.Run(ctx, []FamilyData{{
		Parents:     []PersonData{parent("A", "B", "a@x.com")},
		Students:    []PersonData{student("C", "B", "", crs.ID)},
		Partnership: 3,
	}}, Options{})
	require.NoError(t, err)

	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", res.BatchID.String())
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 0, res.Existing)
	assert.Empty(t, res.Errors)
	require.Len(t, res.Notifications, 1)
	n := res.Notifications[0]
	assert.Equal(t, "B", n.FamilyName)
	assert.Equal(t, core.StatusSuccess, n.Status, "messages: %+v", n.Messages)
	assert.Equal(t, 1, n.Index)

	par, err := f.users.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "ab", par.Username)
	assert.Equal(t, "en", par.Lang)
	assert.True(t, par.Confirmed)
	assert.Equal(t, user.AuthManual, par.Auth)

	stu, err := f.users.GetByEmail(ctx, "a+c@x.com")
	require.NoError(t, err)
	assert.Equal(t, "cb", stu.Username)

	assert.Equal(t, []int64{crs.ID}, f.enrollments(t, stu.ID, course.RoleStudent))
	assert.Equal(t, []int64{crs.ID}, f.enrollments(t, par.ID, course.RoleParent))
	assert.Empty(t, f.enrollments(t, par.ID, course.RoleStudent))

	students, err := f.users.StudentsOfParent(ctx, par.ID)
	require.NoError(t, err)
	if assert.Len(t, students, 1) {
		assert.Equal(t, stu.ID, students[0].ID)
	}

	for _, id := range []int64{par.ID, stu.ID} {
		profiles, err := f.prfRepo.QueryProfiles(ctx, id)
		require.NoError(t, err)
		if assert.Len(t, profiles, 1) {
			assert.Equal(t, int64(3), profiles[0].PartnershipID)
			assert.Equal(t, []int64{}, profiles[0].StudentIDs)
			assert.True(t, profiles[0].Mailing.IsEmpty())
		}
	}

	assert.Contains(t, n.Messages.Successes, f.t(core.MsgAccountCreated, "A B", "a@x.com"))
	assert.Contains(t, n.Messages.Successes, f.t(core.MsgParentAssigned, "A B", "C B"))

	require.Len(t, f.publisher.events, 1)
	ev := f.publisher.events[0]
	assert.Equal(t, EventFamilyImported, ev.Type)
	assert.Equal(t, res.BatchID, ev.BatchID)
	assert.Equal(t, []int64{par.ID}, ev.ParentIDs)
	assert.Equal(t, []int64{stu.ID}, ev.StudentIDs)
	assert.Equal(t, []int64{crs.ID}, ev.CourseIDs)

	assert.Equal(t, float64(1), promtest.ToFloat64(f.metrics.Families.WithLabelValues(string(core.StatusSuccess))))
	assert.Equal(t, float64(1), promtest.ToFloat64(f.metrics.Accounts.WithLabelValues(KindParent, "created")))
	assert.Equal(t, float64(1), promtest.ToFloat64(f.metrics.Accounts.WithLabelValues(KindStudent, "created")))
}

func TestImporter_Run_status(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	crs := testutil.CreateCourse(t, f.crsRepo, "Biology")
	testutil.CreateUser(t, f.usrRepo, "Known", "Parent", "knownparent", "known@x.com", "", nil)

	res, err := f.imp.Run(ctx, []FamilyData{
		{Parents: []PersonData{parent("New", "Parent", "new@x.com")}, Students: []PersonData{student("Kid", "Parent", "", crs.ID)}},
		{Parents: []PersonData{parent("Known", "Parent", "known@x.com")}, Students: []PersonData{student("Other", "Parent", "", crs.ID)}},
		{Parents: []PersonData{parent("Lone", "Parent", "lone@x.com")}, Students: []PersonData{student("Nocourse", "Parent", "")}},
		{Parents: []PersonData{parent("Bad", "Course", "bad@x.com")}, Students: []PersonData{student("Kid", "Course", "", 999)}},
	}, Options{})
	require.NoError(t, err)
	require.Len(t, res.Notifications, 4)

	for _, n := range res.Notifications {
		want := core.StatusSuccess
		if len(n.Messages.Errors) > 0 {
			want = core.StatusError
		} else if len(n.Messages.Warnings) > 0 {
			want = core.StatusWarning
		}
		assert.Equal(t, want, n.Status, "family %q", n.FamilyName)
	}

	assert.Equal(t, core.StatusSuccess, res.Notifications[0].Status)
	assert.Equal(t, core.StatusWarning, res.Notifications[1].Status)
	assert.Contains(t, res.Notifications[1].Messages.Warnings, f.t(core.MsgAccountExists, "Known Parent", "known@x.com"))
	assert.Equal(t, core.StatusError, res.Notifications[2].Status)
	assert.Contains(t, res.Notifications[2].Messages.Errors, f.t(core.MsgNoCoursesFound, "Nocourse Parent"))
	assert.Equal(t, core.StatusError, res.Notifications[3].Status)
	assert.Contains(t, res.Notifications[3].Messages.Errors, f.t(core.MsgCourseNotFound, "999", "Kid Course"))
}

func TestImporter_Run_sameEmailTwice(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, err := f.imp.Run(ctx, []FamilyData{
		{Parents: []PersonData{parent("Jane", "Doe", "jane@x.com")}, Partnership: 1},
		{Parents: []PersonData{parent("Jane", "Doe", " JANE@x.com ")}, Partnership: 2},
	}, Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, f.userCount(t))
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 0, res.Existing)
	require.Len(t, res.Accounts, 1)
	assert.Equal(t, int64(2), res.Accounts[0].PartnershipID)
	assert.Equal(t, core.StatusWarning, res.Notifications[1].Status)

	usr, err := f.users.GetByEmail(ctx, "jane@x.com")
	require.NoError(t, err)
	profiles, err := f.prfRepo.QueryProfiles(ctx, usr.ID)
	require.NoError(t, err)
	if assert.Len(t, profiles, 1) {
		assert.Equal(t, int64(2), profiles[0].PartnershipID)
	}
}

func TestImporter_Run_siblingBinding(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	crs := testutil.CreateCourse(t, f.crsRepo, "Chemistry")

	jane := testutil.CreateUser(t, f.usrRepo, "Jane", "Doe", "janedoe", "jane@x.com", "", nil)
	tom := testutil.CreateUser(t, f.usrRepo, "Tom", "Doe", "tomdoe", "tom@school.test", "", nil)
	require.NoError(t, f.usrRepo.CreateRelation(ctx, user.Relation{ParentID: jane.ID, StudentID: tom.ID, Role: user.RelationRoleParent}))
	before := f.userCount(t)

	res, err := f.imp.Run(ctx, []FamilyData{{
		Parents:  []PersonData{parent("Jane", "Doe", "jane@x.com")},
		Students: []PersonData{student("tom", "DOE", "", crs.ID)},
	}}, Options{})
	require.NoError(t, err)

	assert.Equal(t, before, f.userCount(t))
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 2, res.Existing)
	n := res.Notifications[0]
	assert.Contains(t, n.Messages.Warnings, f.t(core.MsgAccountExists, "Tom Doe", "tom@school.test"))
	assert.Contains(t, n.Messages.Warnings, f.t(core.MsgParentAlreadyAssigned, "Jane Doe", "Tom Doe"))
	assert.Equal(t, []int64{crs.ID}, f.enrollments(t, tom.ID, course.RoleStudent))
}

func TestImporter_Run_similarSibling(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	crs := testutil.CreateCourse(t, f.crsRepo, "Drawing")

	jane := testutil.CreateUser(t, f.usrRepo, "Jane", "Doe", "janedoe", "jane@x.com", "", nil)
	jonathan := testutil.CreateUser(t, f.usrRepo, "Jonathan", "Doe", "jonathandoe", "jonathan@school.test", "", nil)
	require.NoError(t, f.usrRepo.CreateRelation(ctx, user.Relation{ParentID: jane.ID, StudentID: jonathan.ID, Role: user.RelationRoleParent}))

	res, err := f.imp.Run(ctx, []FamilyData{{
		Parents:  []PersonData{parent("Jane", "Doe", "jane@x.com")},
		Students: []PersonData{student("Jonathon", "Doe", "", crs.ID)},
	}}, Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Created)
	assert.Contains(t, res.Notifications[0].Messages.Warnings, f.t(core.MsgPossibleDuplicate, "Jonathon Doe", "Jonathan Doe"))
}

func TestImporter_Run_parentCoursesUnion(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c1 := testutil.CreateCourse(t, f.crsRepo, "C1")
	c2 := testutil.CreateCourse(t, f.crsRepo, "C2")
	c3 := testutil.CreateCourse(t, f.crsRepo, "C3")

	res, err := f.imp.Run(ctx, []FamilyData{{
		Parents: []PersonData{parent("Mom", "Smith", "mom@x.com"), parent("Dad", "Smith", "dad@x.com")},
		Students: []PersonData{
			student("Ann", "Smith", "", c1.ID, c2.ID),
			student("Bob", "Smith", "", c2.ID, c3.ID, c2.ID),
		},
	}}, Options{})
	require.NoError(t, err)
	require.Len(t, res.Notifications, 1)

	for _, email := range []string{"mom@x.com", "dad@x.com"} {
		par, err := f.users.GetByEmail(ctx, email)
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{c1.ID, c2.ID, c3.ID}, f.enrollments(t, par.ID, course.RoleParent), email)

		students, err := f.users.StudentsOfParent(ctx, par.ID)
		require.NoError(t, err)
		assert.Len(t, students, 2)
	}
}

func TestImporter_Run_familyWithoutUsers(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, err := f.imp.Run(ctx, []FamilyData{
		{Parents: []PersonData{parent("", "", "nobody@x.com")}, Partnership: 5},
		{},
		{Parents: []PersonData{parent("Solo", "Parent", "solo@x.com")}},
	}, Options{})
	require.NoError(t, err)
	require.Len(t, res.Notifications, 3)

	first := res.Notifications[0]
	assert.Equal(t, core.StatusError, first.Status)
	assert.Equal(t, f.t(core.MsgFamilyNumber, "1"), first.FamilyName)
	assert.Contains(t, first.Messages.Errors, f.t(core.MsgFamilyHasNoUsers))
	assert.Contains(t, first.Messages.Errors, f.t(core.MsgUserNotAddedToFamily, "nobody@x.com"))

	assert.Equal(t, core.StatusError, res.Notifications[1].Status)
	assert.Equal(t, "Family #2", res.Notifications[1].FamilyName)

	// the remaining families are still processed
	assert.Equal(t, "Parent", res.Notifications[2].FamilyName)
	require.Len(t, res.Accounts, 1)
	assert.Equal(t, "solo@x.com", res.Accounts[0].Email)

	dup, err := f.prfRepo.QueryDuplicateUserIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, dup)
	// one event, for the family that had users
	assert.Len(t, f.publisher.events, 1)
}

func TestImporter_Run_creationFailure(t *testing.T) {
	f := setup(t, func(svc user.Service) user.Service { return failingUsers{Service: svc, firstName: "Broken"} })
	ctx := context.Background()
	crs := testutil.CreateCourse(t, f.crsRepo, "Economics")

	res, err := f.imp.Run(ctx, []FamilyData{{
		Parents:  []PersonData{parent("Pat", "Lee", "pat@x.com")},
		Students: []PersonData{student("Broken", "Lee", "", crs.ID), student("Fine", "Lee", "", crs.ID)},
	}}, Options{})
	require.NoError(t, err)

	n := res.Notifications[0]
	assert.Equal(t, core.StatusError, n.Status)
	assert.Contains(t, n.Messages.Errors, f.t(core.MsgUserNotAddedToFamily, "Broken Lee"))
	assert.Contains(t, n.Messages.Errors, f.t(core.MsgErrorCreatingUser, "Broken Lee", "boom"))
	assert.Equal(t, 2, res.Created)

	fine, err := f.users.GetByEmail(ctx, "pat+fine@x.com")
	require.NoError(t, err)
	assert.Equal(t, []int64{crs.ID}, f.enrollments(t, fine.ID, course.RoleStudent))
}

func TestImporter_Run_idempotent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	crs := testutil.CreateCourse(t, f.crsRepo, "French")

	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	profile.NowFunc = func() time.Time { return now }
	defer func() { profile.NowFunc = time.Now }()

	batch := []FamilyData{{
		Parents:     []PersonData{parent("Ann", "Ray", "ann@x.com")},
		Students:    []PersonData{student("Kit", "Ray", "", crs.ID)},
		Partnership: 9,
	}}

	first, err := f.imp.Run(ctx, batch, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Created)
	usersAfterFirst := f.userCount(t)

	par, err := f.users.GetByEmail(ctx, "ann@x.com")
	require.NoError(t, err)
	before, err := f.prfRepo.QueryProfiles(ctx, par.ID)
	require.NoError(t, err)

	now = now.Add(time.Hour)
	second, err := f.imp.Run(ctx, batch, Options{})
	require.NoError(t, err)

	assert.NotEqual(t, first.BatchID, second.BatchID)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 2, second.Existing)
	assert.Equal(t, usersAfterFirst, f.userCount(t))
	assert.Equal(t, []int64{crs.ID}, f.enrollments(t, par.ID, course.RoleParent))
	assert.Equal(t, core.StatusWarning, second.Notifications[0].Status)
	assert.Contains(t, second.Notifications[0].Messages.Warnings, f.t(core.MsgUserAlreadyEnrolled, "Kit Ray", "French", "student"))

	after, err := f.prfRepo.QueryProfiles(ctx, par.ID)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, before[0].ID, after[0].ID)
	assert.True(t, after[0].TimeModified.After(before[0].TimeModified))
	assert.Equal(t, before[0].TimeCreated, after[0].TimeCreated)
}

func TestImporter_Run_mergesDuplicateProfiles(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	usr := testutil.CreateUser(t, f.usrRepo, "Old", "Timer", "oldtimer", "old@x.com", "", nil)
	older := profile.NewProfile(usr.ID, 1, time.Now().Add(-2*time.Hour).UTC())
	older.StudentIDs = []int64{10}
	newer := profile.NewProfile(usr.ID, 2, time.Now().Add(-time.Hour).UTC())
	newer.StudentIDs = []int64{11}
	newer.Mailing.City = "Lansing"
	_, err := f.prfRepo.CreateProfile(ctx, older)
	require.NoError(t, err)
	_, err = f.prfRepo.CreateProfile(ctx, newer)
	require.NoError(t, err)

	_, err = f.imp.Run(ctx, []FamilyData{}, Options{})
	require.NoError(t, err)

	profiles, err := f.prfRepo.QueryProfiles(ctx, usr.ID)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.ElementsMatch(t, []int64{10, 11}, profiles[0].StudentIDs)
	assert.Equal(t, "Lansing", profiles[0].Mailing.City)
	assert.Equal(t, int64(2), profiles[0].PartnershipID)
}

func TestImporter_Run_notifications(t *testing.T) {
	f := setup(t)
	f.conf.Import.NotifyNewAccounts = true
	f.publisher.err = errors.New("broker down")
	ctx := context.Background()

	_, err := f.imp.Run(ctx, []FamilyData{{
		Parents:  []PersonData{parent("Mail", "Me", "mail@x.com")},
		Students: []PersonData{student("Kid", "Me", "")},
	}}, Options{Lang: "fr"})
	require.NoError(t, err)

	require.Len(t, f.mailer.messages, 2)
	msg := f.mailer.messages[0]
	assert.Equal(t, "mail@x.com", msg.To[0].Address)
	assert.Equal(t, newAccountTemplate, msg.TemplateName)
	data := msg.TemplateData.(map[string]string)
	assert.Equal(t, "mailme", data["Username"])
	assert.Len(t, data["Password"], f.conf.Import.PasswordLength)

	usr, err := f.users.GetByEmail(ctx, "mail@x.com")
	require.NoError(t, err)
	assert.Equal(t, "fr", usr.Lang)
	assert.NoError(t, usr.CheckPassword(data["Password"]))

	// publishing failures are logged, never fatal
	assert.Len(t, f.publisher.events, 1)
	var warned bool
	for _, line := range f.logger.Lines {
		if len(line) > 4 && line[:4] == "WARN" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestImporter_Run_cancelled(t *testing.T) {
	f := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := f.imp.Run(ctx, []FamilyData{{Parents: []PersonData{parent("Too", "Late", "late@x.com")}}}, Options{})
	assert.Error(t, err)
	assert.Equal(t, context.Canceled, errors.Cause(err))
	assert.Empty(t, res.Notifications)
	assert.Equal(t, 0, f.userCount(t))
}
