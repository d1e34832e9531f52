package family

import (
	"context"
	"fmt"
	"net/mail"
	"reflect"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
	"github.com/Junosprite007/mod-equipmentcheckout/core/course"
	"github.com/Junosprite007/mod-equipmentcheckout/core/profile"
	"github.com/Junosprite007/mod-equipmentcheckout/core/user"
)

// Account kinds
const (
	KindParent  = "parent"
	KindStudent = "student"
)

const newAccountTemplate = "newaccount"

type (
	// Enroller enrolls resolved accounts in courses.
	Enroller interface {
		EnrolStudent(ctx context.Context, usr user.User, courseIDs []int64) core.Messages
		EnrolParent(ctx context.Context, usr user.User, courseIDs []int64) core.Messages
	}

	// ProfileReconciler keeps the shadow profiles in line with the resolved accounts.
	ProfileReconciler interface {
		Upsert(ctx context.Context, userID, partnershipID int64) (profile.Profile, bool, error)
		MergeDuplicates(ctx context.Context) (int, error)
	}

	Deps struct {
		Users      user.Service
		Enroller   Enroller
		Profiles   ProfileReconciler
		Validate   *validator.Validate
		Translator ut.Translator
		Logger     core.Logger
		Conf       *core.Config

		// optional
		Mailer    core.EmailService
		Publisher Publisher
		Metrics   *Metrics
	}

	Options struct {
		Lang string // language of created accounts; defaults to the configured import language
	}

	// Account is an account resolved by an import.
	Account struct {
		ID            int64  `json:"id"`
		Username      string `json:"username"`
		Email         string `json:"email"`
		FirstName     string `json:"firstname"`
		LastName      string `json:"lastname"`
		Kind          string `json:"kind"`
		Created       bool   `json:"created"`
		PartnershipID int64  `json:"partnership_id"`
	}

	Result struct {
		BatchID       uuid.UUID      `json:"batch_id"`
		Notifications []Notification `json:"notifications"`
		Accounts      []Account      `json:"accounts"`
		Created       int            `json:"created"`
		Existing      int            `json:"existing"`
		Errors        []string       `json:"errors"` // failures outside of any family
	}

	// Importer runs bulk family imports.
	Importer struct {
		users      user.Service
		enroller   Enroller
		profiles   ProfileReconciler
		validate   *validator.Validate
		translator ut.Translator
		logger     core.Logger
		conf       *core.Config
		mailer     core.EmailService
		publisher  Publisher
		metrics    *Metrics
	}
)

var _ Enroller = (*course.Enroller)(nil)

// isSet is vala.IsNotNil without the panic on values that cannot be nil, such as structs.
func isSet(dep interface{}, name string) vala.Checker {
	if dep == nil {
		return vala.IsNotNil(dep, name)
	}
	switch reflect.ValueOf(dep).Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice:
		return vala.IsNotNil(dep, name)
	}
	return func() (bool, string) { return true, "" }
}

func NewImporter(deps Deps) (*Importer, error) {
	err := vala.BeginValidation().Validate(
		isSet(deps.Users, "Users"),
		isSet(deps.Enroller, "Enroller"),
		isSet(deps.Profiles, "Profiles"),
		isSet(deps.Validate, "Validate"),
		isSet(deps.Translator, "Translator"),
		isSet(deps.Logger, "Logger"),
		isSet(deps.Conf, "Conf"),
	).Check()
	if err != nil {
		return nil, errors.Wrap(err, "invalid importer dependencies")
	}

	imp := &Importer{
		users:      deps.Users,
		enroller:   deps.Enroller,
		profiles:   deps.Profiles,
		validate:   deps.Validate,
		translator: deps.Translator,
		logger:     deps.Logger,
		conf:       deps.Conf,
		mailer:     deps.Mailer,
		publisher:  deps.Publisher,
		metrics:    deps.Metrics,
	}
	if imp.publisher == nil {
		imp.publisher = nopPublisher{}
	}
	return imp, nil
}

// Run imports `families` in order. A failing family only affects its own notification;
// the batch is abandoned only when `ctx` is done, in which case the partial result is returned.
func (imp *Importer) Run(ctx context.Context, families []FamilyData, opts Options) (Result, error) {
	res := Result{
		BatchID:       uuid.New(),
		Notifications: make([]Notification, 0, len(families)),
		Accounts:      make([]Account, 0),
		Errors:        make([]string, 0),
	}
	lang := opts.Lang
	if lang == "" {
		lang = imp.conf.Import.DefaultLang
	}
	r := &resolver{
		users:          imp.users,
		validate:       imp.validate,
		translator:     imp.translator,
		passwordLength: imp.conf.Import.PasswordLength,
		lang:           lang,
	}
	imp.logger.Info(fmt.Sprintf("import %s: %d families", res.BatchID, len(families)))

	accountIdx := make(map[int64]int)
	for i, fd := range families {
		if err := ctx.Err(); err != nil {
			return res, errors.Wrapf(err, "import %s aborted at family #%d", res.BatchID, i+1)
		}

		n, accounts := imp.importFamily(ctx, res.BatchID, i+1, fd, r)
		res.Notifications = append(res.Notifications, n)
		imp.metrics.family(n.Status)

		for _, acc := range accounts {
			if idx, ok := accountIdx[acc.ID]; ok {
				// last partnership wins
				acc.Created = acc.Created || res.Accounts[idx].Created
				res.Accounts[idx] = acc
				continue
			}
			accountIdx[acc.ID] = len(res.Accounts)
			res.Accounts = append(res.Accounts, acc)
		}
	}

	for _, acc := range res.Accounts {
		if acc.Created {
			res.Created++
		} else {
			res.Existing++
		}
	}

	if err := imp.reconcile(ctx, &res); err != nil {
		return res, err
	}
	imp.logger.Info(fmt.Sprintf("import %s: done, %d created, %d existing", res.BatchID, res.Created, res.Existing))
	return res, nil
}

func (imp *Importer) importFamily(ctx context.Context, batchID uuid.UUID, index int, fd FamilyData, r *resolver) (Notification, []Account) {
	msgs := core.NewMessages()

	// parents first, they feed the sibling cache
	parents := make([]resolution, 0, len(fd.Parents))
	for _, p := range fd.Parents {
		res, ok := r.resolve(ctx, r.clean(p), nil, &msgs)
		imp.metrics.account(KindParent, outcome(res, ok))
		if ok {
			parents = append(parents, res)
		}
	}

	siblings := newSiblingCache()
	for _, par := range parents {
		students, err := imp.users.StudentsOfParent(ctx, par.user.ID)
		if err != nil {
			msgs.Error(core.T(imp.translator, core.MsgErrorLoadingStudents, par.user.FullName(), err.Error()))
			continue
		}
		siblings.add(students...)
	}

	students := make([]resolution, 0, len(fd.Students))
	studentCourses := make([][]int64, 0, len(fd.Students))
	for _, s := range fd.Students {
		s = r.clean(s)
		if s.Email == "" && len(parents) > 0 {
			s.Email = studentEmail(parents[0].user.Email, s.Name.FirstName)
		}
		res, ok := r.resolve(ctx, s, siblings, &msgs)
		imp.metrics.account(KindStudent, outcome(res, ok))
		if ok {
			students = append(students, res)
			studentCourses = append(studentCourses, s.Courses)
		}
	}

	if len(parents) == 0 && len(students) == 0 {
		msgs.Error(core.T(imp.translator, core.MsgFamilyHasNoUsers))
		n := newNotification(index, core.T(imp.translator, core.MsgFamilyNumber, fmt.Sprint(index)), msgs)
		imp.logger.Warn(fmt.Sprintf("import %s: family #%d has no users", batchID, index))
		return n, nil
	}

	allCourses := make([]int64, 0)
	for i, st := range students {
		em := imp.enroller.EnrolStudent(ctx, st.user, studentCourses[i])
		imp.metrics.enrollment(course.RoleStudent, em.Status())
		msgs.Merge(em)
		allCourses = append(allCourses, studentCourses[i]...)
	}
	allCourses = core.UniqueInt64s(allCourses)

	type pair struct{ parentID, studentID int64 }
	linked := make(map[pair]struct{})
	for _, par := range parents {
		for _, st := range students {
			key := pair{par.user.ID, st.user.ID}
			if _, ok := linked[key]; ok || par.user.ID == st.user.ID {
				continue
			}
			linked[key] = struct{}{}
			msgs.Merge(imp.users.AssignParent(ctx, par.user, st.user))
		}
	}

	enrolledParents := make(map[int64]struct{})
	for _, par := range parents {
		if _, ok := enrolledParents[par.user.ID]; ok || len(allCourses) == 0 {
			continue
		}
		enrolledParents[par.user.ID] = struct{}{}
		em := imp.enroller.EnrolParent(ctx, par.user, allCourses)
		imp.metrics.enrollment(course.RoleParent, em.Status())
		msgs.Merge(em)
	}

	n := newNotification(index, familyName(parents, students, index, imp.translator), msgs)
	imp.logger.Info(fmt.Sprintf("import %s: family #%d %q: %s", batchID, index, n.FamilyName, n.Status))

	accounts := make([]Account, 0, len(parents)+len(students))
	for _, par := range parents {
		accounts = append(accounts, newAccount(par, KindParent, fd.Partnership))
	}
	for _, st := range students {
		accounts = append(accounts, newAccount(st, KindStudent, fd.Partnership))
	}

	imp.notifyNewAccounts(parents)
	imp.notifyNewAccounts(students)
	imp.publish(ctx, Event{
		Type:          EventFamilyImported,
		BatchID:       batchID,
		FamilyName:    n.FamilyName,
		PartnershipID: fd.Partnership,
		ParentIDs:     userIDs(parents),
		StudentIDs:    userIDs(students),
		CourseIDs:     allCourses,
		Status:        n.Status,
		OccurredAt:    user.NowFunc().UTC(),
	})
	return n, accounts
}

// reconcile upserts the shadow profile of every resolved account then merges duplicate profiles.
func (imp *Importer) reconcile(ctx context.Context, res *Result) error {
	for _, acc := range res.Accounts {
		if err := ctx.Err(); err != nil {
			return errors.Wrapf(err, "import %s aborted while reconciling profiles", res.BatchID)
		}
		if _, _, err := imp.profiles.Upsert(ctx, acc.ID, acc.PartnershipID); err != nil {
			err = errors.Wrapf(err, "upserting profile of user %d", acc.ID)
			imp.logger.Error(fmt.Sprintf("import %s: %v", res.BatchID, err), err)
			res.Errors = append(res.Errors, core.T(imp.translator, core.MsgUnexpectedError, err.Error()))
		}
	}

	merged, err := imp.profiles.MergeDuplicates(ctx)
	if err != nil {
		err = errors.Wrap(err, "merging duplicate profiles")
		imp.logger.Error(fmt.Sprintf("import %s: %v", res.BatchID, err), err)
		res.Errors = append(res.Errors, core.T(imp.translator, core.MsgUnexpectedError, err.Error()))
		return nil
	}
	if merged > 0 {
		imp.logger.Info(fmt.Sprintf("import %s: merged the profiles of %d users", res.BatchID, merged))
	}
	return nil
}

func (imp *Importer) notifyNewAccounts(resolved []resolution) {
	if imp.mailer == nil || !imp.conf.Import.NotifyNewAccounts {
		return
	}
	messages := make([]*core.EmailMessage, 0)
	for _, res := range resolved {
		if !res.created || res.user.Email == "" {
			continue
		}
		messages = append(messages, &core.EmailMessage{
			To:           []mail.Address{{Name: res.user.FullName(), Address: res.user.Email}},
			Subject:      core.T(imp.translator, core.MsgNewAccountSubject),
			TemplateName: newAccountTemplate,
			TemplateData: map[string]string{
				"FirstName": res.user.FirstName,
				"Username":  res.user.Username,
				"Password":  res.password,
			},
		})
	}
	if len(messages) > 0 {
		imp.mailer.SendMessages(messages...)
	}
}

func (imp *Importer) publish(ctx context.Context, event Event) {
	if err := imp.publisher.Publish(ctx, event); err != nil {
		imp.logger.Warn(fmt.Sprintf("import %s: publishing %s: %v", event.BatchID, event.Type, err), err)
	}
}

func newAccount(res resolution, kind string, partnershipID int64) Account {
	return Account{
		ID:            res.user.ID,
		Username:      res.user.Username,
		Email:         res.user.Email,
		FirstName:     res.user.FirstName,
		LastName:      res.user.LastName,
		Kind:          kind,
		Created:       res.created,
		PartnershipID: partnershipID,
	}
}

func outcome(res resolution, ok bool) string {
	switch {
	case !ok:
		return "failed"
	case res.created:
		return "created"
	default:
		return "existing"
	}
}

func userIDs(resolved []resolution) []int64 {
	ids := make([]int64, 0, len(resolved))
	for _, res := range resolved {
		ids = append(ids, res.user.ID)
	}
	return core.UniqueInt64s(ids)
}
