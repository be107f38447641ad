package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/oit-labs/lostfound/internal/model"
)

// GetAction returns an action by machine name.
func GetAction(ctx context.Context, db DBTX, machineName string) (*model.Action, error) {
	a := &model.Action{}
	err := db.QueryRowContext(ctx,
		`SELECT id, name, machine_name, weight FROM action WHERE machine_name = ?`,
		machineName,
	).Scan(&a.ID, &a.Name, &a.MachineName, &a.Weight)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting action: %w", err)
	}
	return a, nil
}

// ListActions returns all actions, heaviest weight first.
func ListActions(ctx context.Context, db DBTX) ([]model.Action, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, machine_name, weight FROM action ORDER BY weight DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing actions: %w", err)
	}
	defer rows.Close()

	var actions []model.Action
	for rows.Next() {
		var a model.Action
		if err := rows.Scan(&a.ID, &a.Name, &a.MachineName, &a.Weight); err != nil {
			return nil, fmt.Errorf("scanning action: %w", err)
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

// GetCategory returns a category by ID.
func GetCategory(ctx context.Context, db DBTX, id int64) (*model.Category, error) {
	c := &model.Category{}
	var machineName sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, machine_name FROM category WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &machineName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting category: %w", err)
	}
	c.MachineName = machineName.String
	return c, nil
}

// ListCategories returns all categories ordered by name.
func ListCategories(ctx context.Context, db DBTX) ([]model.Category, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, machine_name FROM category ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		var machineName sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &machineName); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		c.MachineName = machineName.String
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CreateCategory creates a category.
func CreateCategory(ctx context.Context, db DBTX, name, machineName string) (*model.Category, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO category (name, machine_name) VALUES (?, NULLIF(?, ''))`,
		name, machineName,
	)
	if err != nil {
		return nil, fmt.Errorf("creating category: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting category id: %w", err)
	}
	return GetCategory(ctx, db, id)
}

// GetLocation returns a location by ID.
func GetLocation(ctx context.Context, db DBTX, id int64) (*model.Location, error) {
	l := &model.Location{}
	err := db.QueryRowContext(ctx,
		`SELECT id, name FROM location WHERE id = ?`, id,
	).Scan(&l.ID, &l.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting location: %w", err)
	}
	return l, nil
}

// ListLocations returns all locations ordered by name.
func ListLocations(ctx context.Context, db DBTX) ([]model.Location, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name FROM location ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing locations: %w", err)
	}
	defer rows.Close()

	var locations []model.Location
	for rows.Next() {
		var l model.Location
		if err := rows.Scan(&l.ID, &l.Name); err != nil {
			return nil, fmt.Errorf("scanning location: %w", err)
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

// CreateLocation creates a location.
func CreateLocation(ctx context.Context, db DBTX, name string) (*model.Location, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO location (name) VALUES (?)`, name,
	)
	if err != nil {
		return nil, fmt.Errorf("creating location: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting location id: %w", err)
	}
	return GetLocation(ctx, db, id)
}
