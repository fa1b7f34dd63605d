package main

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"sync"
	"time"

	"adminform"

	"github.com/shopspring/decimal"
	"gopkg.in/guregu/null.v4"
	"gorm.io/gorm"
)

// built-in administrator, can not be deleted
const adminID = 1

type User struct {
	ID        uint            `gorm:"primaryKey;autoIncrement"`
	Name      string          `gorm:"not null;size:64"`
	Email     string          `gorm:"not null;uniqueIndex;size:128"`
	Nickname  null.String     `gorm:"size:64"`
	Balance   decimal.Decimal `gorm:"type:decimal(10,2)"`
	Birthday  *time.Time
	Active    bool
	Note      string `admin:"textarea=4"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) Validate() error {
	var errs []error
	if _, err := mail.ParseAddress(u.Email); u.Email != "" && err != nil {
		errs = append(errs, &adminform.FieldError{Field: "Email", Message: "Invalid email address."})
	}
	if u.Balance.IsNegative() {
		errs = append(errs, &adminform.FieldError{Field: "Balance", Message: "Balance can not be negative."})
	}
	return errors.Join(errs...)
}

func migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&User{}); err != nil {
		return err
	}
	return db.WithContext(ctx).
		Where(User{ID: adminID}).
		Attrs(User{Name: "admin", Email: "admin@example.com", Active: true}).
		FirstOrCreate(&User{}).Error
}

type userForm struct {
	form      *adminform.AdminForm[User]
	model     *adminform.EntityModel[User]
	singleton bool
}

func newUserForm(id string, m *adminform.EntityModel[User], singleton bool) *userForm {
	u := &userForm{model: m, singleton: singleton}
	u.form = adminform.NewAdminForm[User](id, m, u)
	if singleton {
		u.form.HideNewRecord()
	}
	return u
}

// /admin/user/?pk=3
func userPage(db *gorm.DB) adminform.PageFactory {
	return func(r *http.Request) (adminform.Page, error) {
		m := adminform.NewEntityModel[User](db, adminform.PK(r))
		if r.Method == http.MethodGet {
			if err := m.Load(r.Context()); err != nil {
				return nil, err
			}
		}
		return newUserForm("user", m, false).form, nil
	}
}

// the administrator only
func profilePage(db *gorm.DB) adminform.PageFactory {
	return func(r *http.Request) (adminform.Page, error) {
		m := adminform.NewEntityModel[User](db, adminID)
		if err := m.Load(r.Context()); err != nil {
			return nil, err
		}
		return newUserForm("profile", m, true).form, nil
	}
}

// replace the whole form, the panel buttons may change
func (u *userForm) redraw(t *adminform.AjaxTarget) {
	t.Add(u.form)
	adminform.ReinitJs(t)
}

func (u *userForm) OnSaveSubmit(t *adminform.AjaxTarget, f *adminform.Form) {
	if err := u.model.Save(t.Request().Context()); err != nil {
		f.Error(err.Error())
		return
	}
	adminform.Flash(t.Request(), "User saved.", "success")
	u.redraw(t)
}

func (u *userForm) OnSaveError(t *adminform.AjaxTarget, f *adminform.Form) {
	u.redraw(t)
}

func (u *userForm) OnNewSubmit(t *adminform.AjaxTarget, f *adminform.Form) {
	u.model.Reset()
	u.redraw(t)
}

func (u *userForm) OnRefreshSubmit(t *adminform.AjaxTarget, f *adminform.Form) {
	u.model.Detach()
	u.redraw(t)
}

func (u *userForm) OnRefreshError(t *adminform.AjaxTarget, f *adminform.Form) {
	adminform.Flash(t.Request(), "The record can not be loaded.", "error")
	u.redraw(t)
}

func (u *userForm) OnDeleteSubmit(t *adminform.AjaxTarget, f *adminform.Form) {
	if err := u.model.Delete(t.Request().Context()); err != nil {
		f.Error(err.Error())
		return
	}
	adminform.Flash(t.Request(), "User deleted.", "success")
	t.Redirect("./")
}

func (u *userForm) OnDeleteError(t *adminform.AjaxTarget, f *adminform.Form) {
	adminform.Flash(t.Request(), "User not deleted.", "error")
	u.redraw(t)
}

// new record and the administrator can not be deleted
func (u *userForm) IsDelBtnVisible() bool {
	return !u.singleton && !u.model.IsNew() && u.model.Get().ID != adminID
}

type Settings struct {
	SiteName    string `gorm:"not null"`
	Maintenance bool
	PageSize    int    `gorm:"default:20"`
	Notice      string `admin:"textarea=3"`
}

func (s *Settings) Validate() error {
	if s.PageSize < 1 || s.PageSize > 500 {
		return &adminform.FieldError{Field: "PageSize", Message: "Page size should be in 1 to 500."}
	}
	return nil
}

var settings = struct {
	sync.Mutex
	v Settings
}{v: Settings{SiteName: "Admin", PageSize: 20}}

func settingsPage(r *http.Request) (adminform.Page, error) {
	settings.Lock()
	m := adminform.NewModel(settings.v)
	settings.Unlock()

	var form *adminform.AdminForm[Settings]
	redraw := func(t *adminform.AjaxTarget, f *adminform.Form) {
		t.Add(form)
		adminform.ReinitJs(t)
	}

	form = adminform.NewAdminForm("settings", m, &adminform.HandlerFuncs{
		Save: func(t *adminform.AjaxTarget, f *adminform.Form) {
			settings.Lock()
			settings.v = m.Get()
			settings.Unlock()

			adminform.Flash(t.Request(), "Settings saved.", "success")
			redraw(t, f)
		},
		SaveError: redraw,
		Refresh:   redraw,

		NewBtnVisible: func() bool { return false },
		DelBtnVisible: func() bool { return false },
	})
	return form, nil
}
