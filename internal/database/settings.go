package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// splitSettingKey turns "group.varname" into its two columns
func splitSettingKey(key string) (string, string, error) {
	group, varname, ok := strings.Cut(key, ".")
	if !ok || group == "" || varname == "" {
		return "", "", fmt.Errorf("invalid setting key %q, expected group.varname", key)
	}
	return group, varname, nil
}

// GetSetting retrieves a panel setting by "group.varname". Missing settings
// return an empty string.
func (db *DB) GetSetting(ctx context.Context, key string) (string, error) {
	group, varname, err := splitSettingKey(key)
	if err != nil {
		return "", err
	}

	var value string
	err = db.QueryRow(ctx,
		"SELECT `value` FROM `panel_settings` WHERE `settinggroup` = ? AND `varname` = ?",
		group, varname,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// GetAllSettings retrieves all panel settings keyed by "group.varname"
func (db *DB) GetAllSettings(ctx context.Context) (map[string]string, error) {
	const query = "SELECT `settinggroup`, `varname`, `value` FROM `panel_settings`"

	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var group, varname, value string
		if err := rows.Scan(&group, &varname, &value); err != nil {
			return nil, db.fail("query", query, fmt.Errorf("failed to scan setting: %w", err), true)
		}
		settings[group+"."+varname] = value
	}
	if err := rows.Err(); err != nil {
		return nil, db.fail("query", query, err, true)
	}

	return settings, nil
}

// SetSetting stores a panel setting, creating it when missing
func (db *DB) SetSetting(ctx context.Context, key, value string) error {
	group, varname, err := splitSettingKey(key)
	if err != nil {
		return err
	}

	var count int
	if err := db.QueryRow(ctx,
		"SELECT COUNT(*) FROM `panel_settings` WHERE `settinggroup` = ? AND `varname` = ?",
		group, varname,
	).Scan(&count); err != nil {
		return err
	}

	if count > 0 {
		_, err = db.Exec(ctx,
			"UPDATE `panel_settings` SET `value` = ? WHERE `settinggroup` = ? AND `varname` = ?",
			value, group, varname,
		)
	} else {
		_, err = db.Exec(ctx,
			"INSERT INTO `panel_settings` (`settinggroup`, `varname`, `value`) VALUES (?, ?, ?)",
			group, varname, value,
		)
	}
	return err
}
