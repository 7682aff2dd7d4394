package mongo

import (
	"time"

	"github.com/xraph/grove"

	"github.com/Hejazi-bu/Hejazi-SSD-sub000/catalog"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/decisionlog"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/directory"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/exception"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/grant"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/id"
)

// The three permission id columns are stored as explicit nulls (no
// omitempty) so that the exact-tuple unique indexes and tuple filters
// treat "absent" deterministically.

// ──────────────────────────────────────────────────
// Job permission (grant) model
// ──────────────────────────────────────────────────

type grantModel struct {
	grove.BaseModel `grove:"table:authz_job_permissions"`
	ID              string    `grove:"id,pk"              bson:"_id"`
	JobID           int       `grove:"job_id"             bson:"job_id"`
	ServiceID       *int      `grove:"service_id"         bson:"service_id"`
	SubServiceID    *int      `grove:"sub_service_id"     bson:"sub_service_id"`
	SubSubServiceID *int      `grove:"sub_sub_service_id" bson:"sub_sub_service_id"`
	CreatedBy       string    `grove:"created_by"         bson:"created_by"`
	CreatedAt       time.Time `grove:"created_at"         bson:"created_at"`
}

func grantToModel(g *grant.Grant) *grantModel {
	return &grantModel{
		ID:              g.ID.String(),
		JobID:           g.JobID,
		ServiceID:       g.ServiceID,
		SubServiceID:    g.SubServiceID,
		SubSubServiceID: g.SubSubServiceID,
		CreatedBy:       g.CreatedBy,
		CreatedAt:       g.CreatedAt,
	}
}

func grantFromModel(m *grantModel) *grant.Grant {
	gid, _ := id.ParseGrantID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &grant.Grant{
		ID:              gid,
		JobID:           m.JobID,
		ServiceID:       m.ServiceID,
		SubServiceID:    m.SubServiceID,
		SubSubServiceID: m.SubSubServiceID,
		CreatedBy:       m.CreatedBy,
		CreatedAt:       m.CreatedAt,
	}
}

// ──────────────────────────────────────────────────
// User permission (exception) model
// ──────────────────────────────────────────────────

type exceptionModel struct {
	grove.BaseModel `grove:"table:authz_user_permissions"`
	ID              string    `grove:"id,pk"               bson:"_id"`
	UserID          string    `grove:"user_id"             bson:"user_id"`
	ServiceID       *int      `grove:"service_id"          bson:"service_id"`
	SubServiceID    *int      `grove:"sub_service_id"      bson:"sub_service_id"`
	SubSubServiceID *int      `grove:"sub_sub_service_id"  bson:"sub_sub_service_id"`
	IsAllowed       bool      `grove:"is_allowed"          bson:"is_allowed"`
	IsManual        bool      `grove:"is_manual_exception" bson:"is_manual_exception"`
	CreatedBy       string    `grove:"created_by"          bson:"created_by"`
	CreatedAt       time.Time `grove:"created_at"          bson:"created_at"`
	UpdatedAt       time.Time `grove:"updated_at"          bson:"updated_at"`
}

func exceptionToModel(e *exception.Exception) *exceptionModel {
	return &exceptionModel{
		ID:              e.ID.String(),
		UserID:          e.UserID,
		ServiceID:       e.ServiceID,
		SubServiceID:    e.SubServiceID,
		SubSubServiceID: e.SubSubServiceID,
		IsAllowed:       e.Allowed,
		IsManual:        e.ManualException,
		CreatedBy:       e.CreatedBy,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func exceptionFromModel(m *exceptionModel) *exception.Exception {
	eid, _ := id.ParseExceptionID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &exception.Exception{
		ID:              eid,
		UserID:          m.UserID,
		ServiceID:       m.ServiceID,
		SubServiceID:    m.SubServiceID,
		SubSubServiceID: m.SubSubServiceID,
		Allowed:         m.IsAllowed,
		ManualException: m.IsManual,
		CreatedBy:       m.CreatedBy,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// User model
// ──────────────────────────────────────────────────

type userModel struct {
	grove.BaseModel `grove:"table:authz_users"`
	ID              string    `grove:"id,pk"          bson:"_id"`
	DisplayName     string    `grove:"display_name"   bson:"display_name"`
	IsSuperAdmin    bool      `grove:"is_super_admin" bson:"is_super_admin"`
	JobID           *int      `grove:"job_id"         bson:"job_id"`
	CreatedAt       time.Time `grove:"created_at"     bson:"created_at"`
	UpdatedAt       time.Time `grove:"updated_at"     bson:"updated_at"`
}

func userToModel(u *directory.User) *userModel {
	return &userModel{
		ID:           u.ID,
		DisplayName:  u.DisplayName,
		IsSuperAdmin: u.IsSuperAdmin,
		JobID:        u.JobID,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func userFromModel(m *userModel) *directory.User {
	return &directory.User{
		ID:           m.ID,
		DisplayName:  m.DisplayName,
		IsSuperAdmin: m.IsSuperAdmin,
		JobID:        m.JobID,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Catalog models
// ──────────────────────────────────────────────────

type serviceModel struct {
	grove.BaseModel `grove:"table:authz_services"`
	ID              int       `grove:"id,pk"      bson:"_id"`
	Name            string    `grove:"name"       bson:"name"`
	CreatedAt       time.Time `grove:"created_at" bson:"created_at"`
}

type subServiceModel struct {
	grove.BaseModel `grove:"table:authz_sub_services"`
	ID              int       `grove:"id,pk"      bson:"_id"`
	ServiceID       int       `grove:"service_id" bson:"service_id"`
	Name            string    `grove:"name"       bson:"name"`
	CreatedAt       time.Time `grove:"created_at" bson:"created_at"`
}

type subSubServiceModel struct {
	grove.BaseModel `grove:"table:authz_sub_sub_services"`
	ID              int       `grove:"id,pk"          bson:"_id"`
	SubServiceID    int       `grove:"sub_service_id" bson:"sub_service_id"`
	Name            string    `grove:"name"           bson:"name"`
	CreatedAt       time.Time `grove:"created_at"     bson:"created_at"`
}

func serviceFromModel(m *serviceModel) *catalog.Service {
	return &catalog.Service{ID: m.ID, Name: m.Name, CreatedAt: m.CreatedAt}
}

func subServiceFromModel(m *subServiceModel) *catalog.SubService {
	return &catalog.SubService{ID: m.ID, ServiceID: m.ServiceID, Name: m.Name, CreatedAt: m.CreatedAt}
}

func subSubServiceFromModel(m *subSubServiceModel) *catalog.SubSubService {
	return &catalog.SubSubService{ID: m.ID, SubServiceID: m.SubServiceID, Name: m.Name, CreatedAt: m.CreatedAt}
}

// ──────────────────────────────────────────────────
// Decision log model
// ──────────────────────────────────────────────────

type decisionModel struct {
	grove.BaseModel `grove:"table:authz_decision_logs"`
	ID              string    `grove:"id,pk"         bson:"_id"`
	CallerID        string    `grove:"caller_id"     bson:"caller_id"`
	PermissionID    string    `grove:"permission_id" bson:"permission_id"`
	Allowed         bool      `grove:"allowed"       bson:"allowed"`
	Decision        string    `grove:"decision"      bson:"decision"`
	Reason          string    `grove:"reason"        bson:"reason"`
	EvalTimeNs      int64     `grove:"eval_time_ns"  bson:"eval_time_ns"`
	CreatedAt       time.Time `grove:"created_at"    bson:"created_at"`
}

func decisionToModel(e *decisionlog.Entry) *decisionModel {
	return &decisionModel{
		ID:           e.ID.String(),
		CallerID:     e.CallerID,
		PermissionID: e.PermissionID,
		Allowed:      e.Allowed,
		Decision:     e.Decision,
		Reason:       e.Reason,
		EvalTimeNs:   e.EvalTimeNs,
		CreatedAt:    e.CreatedAt,
	}
}

func decisionFromModel(m *decisionModel) *decisionlog.Entry {
	did, _ := id.ParseDecisionID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &decisionlog.Entry{
		ID:           did,
		CallerID:     m.CallerID,
		PermissionID: m.PermissionID,
		Allowed:      m.Allowed,
		Decision:     m.Decision,
		Reason:       m.Reason,
		EvalTimeNs:   m.EvalTimeNs,
		CreatedAt:    m.CreatedAt,
	}
}
