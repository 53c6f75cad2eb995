// Package utils provides small helpers shared by the storage and service layers.
//
// ToNullString maps optional update fields to SQL parameters:
//
//	_, err := tx.ExecContext(ctx, query, utils.ToNullString(update.APIKey), userID)
//
// MaskEmail keeps addresses out of logs:
//
//	slog.Info("Account created", "email", utils.MaskEmail(view.Email))
package utils
