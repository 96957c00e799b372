package catalog

import (
	"time"

	"catalog-admin/internal/models"
)

// AddUser registers a user; lastLogin starts at creation time
func (c *Catalog) AddUser(in UserInput) (models.User, models.Events, error) {
	if verr := check(in); verr != nil {
		return models.User{}, nil, verr
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	u := &models.User{
		ID:        c.newID(),
		Username:  in.Username,
		Email:     in.Email,
		Name:      in.Name,
		CreatedAt: now,
		LastLogin: now,
	}
	c.users.add(u.ID, u)

	return *u, models.Events{c.event(models.EventTypeUserCreated, models.EntityUser, u.ID, *u, now)}, nil
}

// UpdateUser merges the non-nil fields of patch into the user
func (c *Catalog) UpdateUser(id string, patch UserPatch) (models.User, models.Events, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	u, ok := c.users.get(id)
	if !ok {
		return models.User{}, nil, notFound(models.EntityUser, id)
	}

	next := *u
	if patch.Username != nil {
		next.Username = *patch.Username
	}
	if patch.Email != nil {
		next.Email = *patch.Email
	}
	if patch.Name != nil {
		next.Name = *patch.Name
	}
	if verr := check(UserInput{Username: next.Username, Email: next.Email, Name: next.Name}); verr != nil {
		return models.User{}, nil, verr
	}
	*u = next

	return next, models.Events{c.event(models.EventTypeUserUpdated, models.EntityUser, id, next, c.now())}, nil
}

// DeleteUser removes a user and every activity record that belongs to them
func (c *Catalog) DeleteUser(id string) (models.Events, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.users.remove(id) {
		return nil, notFound(models.EntityUser, id)
	}
	c.activity.removeWhere(func(l *models.ActivityLog) bool { return l.UserID == id })

	return models.Events{c.event(models.EventTypeUserDeleted, models.EntityUser, id, nil, c.now())}, nil
}

// RecordLogin refreshes lastLogin and logs a login activity
func (c *Catalog) RecordLogin(id string) (models.User, models.Events, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	u, ok := c.users.get(id)
	if !ok {
		return models.User{}, nil, notFound(models.EntityUser, id)
	}

	now := c.now()
	u.LastLogin = now
	entry := c.appendActivity(u.ID, u.Username, models.ActionLogin, "Logged in", now)

	return *u, models.Events{
		c.event(models.EventTypeUserUpdated, models.EntityUser, id, *u, now),
		c.event(models.EventTypeActivityLogged, models.EntityActivityLog, entry.ID, entry, now),
	}, nil
}

// LogActivity appends an audit record; the log reads newest first
func (c *Catalog) LogActivity(in ActivityInput) (models.ActivityLog, models.Events, error) {
	verr := check(in)
	if in.Action != "" && !in.Action.Valid() {
		verr = merge(verr, invalidField("action", "is not a known activity"))
	}
	if verr != nil {
		return models.ActivityLog{}, nil, verr
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	entry := c.appendActivity(in.UserID, in.Username, in.Action, in.Details, now)

	return entry, models.Events{c.event(models.EventTypeActivityLogged, models.EntityActivityLog, entry.ID, entry, now)}, nil
}

func (c *Catalog) appendActivity(userID, username string, action models.ActivityAction, details string, now time.Time) models.ActivityLog {
	entry := &models.ActivityLog{
		ID:        c.newID(),
		UserID:    userID,
		Username:  username,
		Action:    action,
		Details:   details,
		Timestamp: now,
	}
	c.activity.prepend(entry.ID, entry)
	return *entry
}

// ActivityLogs lists activity newest first, restricted to one user when userID is set
func (c *Catalog) ActivityLogs(userID string) []models.ActivityLog {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.ActivityLog, 0)
	c.activity.each(func(l *models.ActivityLog) {
		if userID == "" || l.UserID == userID {
			out = append(out, *l)
		}
	})
	return out
}

// User returns a user by id
func (c *Catalog) User(id string) (models.User, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.users.get(id)
	if !ok {
		return models.User{}, notFound(models.EntityUser, id)
	}
	return *u, nil
}

// Users lists users in creation order
func (c *Catalog) Users() []models.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.User, 0, c.users.len())
	c.users.each(func(u *models.User) { out = append(out, *u) })
	return out
}
