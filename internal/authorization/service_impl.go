package authorization

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed model.conf
var modelText string

var (
	ErrInvalidUser       = errors.New("invalid_user")
	ErrInvalidPermission = errors.New("invalid_permission")
)

// Assignor grants roles and permissions inside one tenant database. The
// permission tables are the source of truth; every grant is mirrored into a
// casbin enforcer that answers Can.
type Assignor struct {
	db       *gorm.DB
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

// New builds an Assignor for a tenant database.
func New(db *gorm.DB, log *zap.Logger) (*Assignor, error) {
	enforcer, err := NewEnforcer(db)
	if err != nil {
		return nil, fmt.Errorf("casbin enforcer: %w", err)
	}
	return &Assignor{
		db:       db,
		log:      log.Named("authorization.assignor"),
		enforcer: enforcer,
	}, nil
}

func userSubject(userID snowflake.ID) string { return "user:" + userID.String() }

func roleSubject(role string) string { return "role:" + role }

// AssignToUser attaches roles and direct permissions to a user. Grants the
// user already holds are left untouched, so repeated calls are no-ops.
// Unknown role or permission names are skipped with a warning.
func (a *Assignor) AssignToUser(ctx context.Context, userID snowflake.ID, roles []string, permissions []string) error {
	if userID == 0 {
		return ErrInvalidUser
	}
	roles = dedup(roles)
	permissions = dedup(permissions)

	var (
		roleNames []string
		permNames []string
	)
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		roleIDs, err := a.roleIDs(tx, roles)
		if err != nil {
			return err
		}
		permIDs, err := a.permissionIDs(tx, permissions)
		if err != nil {
			return err
		}

		roleRows := make([]ModelHasRole, 0, len(roles))
		for _, name := range roles {
			id, ok := roleIDs[name]
			if !ok {
				a.log.Warn("role not found, skipping", zap.String("role", name))
				continue
			}
			roleRows = append(roleRows, ModelHasRole{RoleID: id, ModelType: ModelTypeUser, ModelID: userID})
			roleNames = append(roleNames, name)
		}
		if len(roleRows) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&roleRows).Error; err != nil {
				return err
			}
		}

		permRows := make([]ModelHasPermission, 0, len(permissions))
		for _, name := range permissions {
			id, ok := permIDs[name]
			if !ok {
				a.log.Warn("permission not found, skipping", zap.String("permission", name))
				continue
			}
			permRows = append(permRows, ModelHasPermission{PermissionID: id, ModelType: ModelTypeUser, ModelID: userID})
			permNames = append(permNames, name)
		}
		if len(permRows) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&permRows).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	subject := userSubject(userID)
	for _, name := range roleNames {
		if _, err := a.enforcer.AddGroupingPolicy(subject, roleSubject(name)); err != nil {
			return err
		}
	}
	for _, name := range permNames {
		if _, err := a.enforcer.AddPolicy(subject, GuardWeb, name); err != nil {
			return err
		}
	}
	return nil
}

// SyncRolePermissions links each pair's permission to its role and returns
// the number of links created.
func (a *Assignor) SyncRolePermissions(ctx context.Context, pairs []Pair) (int, error) {
	if len(pairs) == 0 {
		return 0, nil
	}

	roles := make([]string, 0, len(pairs))
	perms := make([]string, 0, len(pairs))
	for _, p := range pairs {
		roles = append(roles, p.Role)
		perms = append(perms, p.Permission)
	}

	var (
		linked  []Pair
		created int64
	)
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		roleIDs, err := a.roleIDs(tx, dedup(roles))
		if err != nil {
			return err
		}
		permIDs, err := a.permissionIDs(tx, dedup(perms))
		if err != nil {
			return err
		}

		rows := make([]RoleHasPermission, 0, len(pairs))
		seen := make(map[RoleHasPermission]struct{}, len(pairs))
		for _, p := range pairs {
			roleID, okRole := roleIDs[p.Role]
			permID, okPerm := permIDs[p.Permission]
			if !okRole || !okPerm {
				a.log.Warn("unknown role permission pair, skipping",
					zap.String("permission", p.Permission),
					zap.String("role", p.Role),
				)
				continue
			}
			row := RoleHasPermission{PermissionID: permID, RoleID: roleID}
			if _, ok := seen[row]; ok {
				continue
			}
			seen[row] = struct{}{}
			rows = append(rows, row)
			linked = append(linked, p)
		}
		if len(rows) == 0 {
			return nil
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
		created = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, err
	}

	for _, p := range linked {
		if _, err := a.enforcer.AddPolicy(roleSubject(p.Role), GuardWeb, p.Permission); err != nil {
			return 0, err
		}
	}
	return int(created), nil
}

// RevokeFromUser removes direct permissions from a user. Role grants are
// not affected.
func (a *Assignor) RevokeFromUser(ctx context.Context, userID snowflake.ID, permissions []string) error {
	if userID == 0 {
		return ErrInvalidUser
	}
	permissions = dedup(permissions)
	if len(permissions) == 0 {
		return nil
	}

	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		permIDs, err := a.permissionIDs(tx, permissions)
		if err != nil {
			return err
		}
		ids := make([]snowflake.ID, 0, len(permIDs))
		for _, id := range permIDs {
			ids = append(ids, id)
		}
		if len(ids) == 0 {
			return nil
		}
		return tx.Where("model_type = ? AND model_id = ? AND permission_id IN ?", ModelTypeUser, userID, ids).
			Delete(&ModelHasPermission{}).Error
	})
	if err != nil {
		return err
	}

	subject := userSubject(userID)
	for _, name := range permissions {
		if _, err := a.enforcer.RemovePolicy(subject, GuardWeb, name); err != nil {
			return err
		}
	}
	return nil
}

// RevokeFromRole unlinks permissions from a role.
func (a *Assignor) RevokeFromRole(ctx context.Context, role string, permissions []string) error {
	permissions = dedup(permissions)
	if len(permissions) == 0 {
		return nil
	}

	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		roleIDs, err := a.roleIDs(tx, []string{role})
		if err != nil {
			return err
		}
		roleID, ok := roleIDs[role]
		if !ok {
			return nil
		}
		permIDs, err := a.permissionIDs(tx, permissions)
		if err != nil {
			return err
		}
		ids := make([]snowflake.ID, 0, len(permIDs))
		for _, id := range permIDs {
			ids = append(ids, id)
		}
		if len(ids) == 0 {
			return nil
		}
		return tx.Where("role_id = ? AND permission_id IN ?", roleID, ids).
			Delete(&RoleHasPermission{}).Error
	})
	if err != nil {
		return err
	}

	for _, name := range permissions {
		if _, err := a.enforcer.RemovePolicy(roleSubject(role), GuardWeb, name); err != nil {
			return err
		}
	}
	return nil
}

// UserPermissions lists the user's direct permission names.
func (a *Assignor) UserPermissions(ctx context.Context, userID snowflake.ID) ([]string, error) {
	var names []string
	err := a.db.WithContext(ctx).
		Table("model_has_permissions AS mhp").
		Joins("JOIN permissions p ON p.id = mhp.permission_id").
		Where("mhp.model_type = ? AND mhp.model_id = ?", ModelTypeUser, userID).
		Order("p.name").
		Pluck("p.name", &names).Error
	return names, err
}

// Can reports whether the user holds permission directly or through a role.
// The policy is reloaded first so grants written by other processes, such as
// another replica or posctl seed, are honoured.
func (a *Assignor) Can(ctx context.Context, userID snowflake.ID, permission string) (bool, error) {
	if userID == 0 {
		return false, ErrInvalidUser
	}
	permission = strings.TrimSpace(permission)
	if permission == "" {
		return false, ErrInvalidPermission
	}
	if err := a.Reload(); err != nil {
		return false, fmt.Errorf("reload policy: %w", err)
	}
	return a.enforcer.Enforce(userSubject(userID), GuardWeb, permission)
}

// Reload refreshes the enforcer from the policy table.
func (a *Assignor) Reload() error {
	return a.enforcer.LoadPolicy()
}

func (a *Assignor) roleIDs(tx *gorm.DB, names []string) (map[string]snowflake.ID, error) {
	out := make(map[string]snowflake.ID, len(names))
	if len(names) == 0 {
		return out, nil
	}
	var rows []Role
	if err := tx.Where("guard_name = ? AND name IN ?", GuardWeb, names).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.Name] = r.ID
	}
	return out, nil
}

func (a *Assignor) permissionIDs(tx *gorm.DB, names []string) (map[string]snowflake.ID, error) {
	out := make(map[string]snowflake.ID, len(names))
	if len(names) == 0 {
		return out, nil
	}
	var rows []Permission
	if err := tx.Where("guard_name = ? AND name IN ?", GuardWeb, names).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.Name] = p.ID
	}
	return out, nil
}

func dedup(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
