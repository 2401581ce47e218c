package wallet

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nawaz1711/vibelog-pro/internal/models"
)

type WalletService struct {
	DB *gorm.DB
}

func NewWalletService(db *gorm.DB) *WalletService {
	return &WalletService{DB: db}
}

// Credit adds funds to a user's wallet and creates a ledger entry.
// This should be called within a DB transaction.
func (s *WalletService) Credit(tx *gorm.DB, userID uuid.UUID, amount int64, referenceID uuid.UUID, description string) error {
	if amount <= 0 {
		return errors.New("amount to credit must be greater than zero")
	}

	result := tx.Model(&models.User{}).
		Where("id = ?", userID).
		Update("wallet", gorm.Expr("wallet + ?", amount))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("user not found for id %s", userID)
	}

	ledger := models.WalletTransaction{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      amount,
		Type:        models.WalletTrxCredit,
		Description: description,
		ReferenceID: &referenceID,
	}

	if err := tx.Create(&ledger).Error; err != nil {
		return err
	}

	return nil
}

// Debit deducts funds from a user's wallet and creates a ledger entry.
// This should be called within a DB transaction.
func (s *WalletService) Debit(tx *gorm.DB, userID uuid.UUID, amount int64, referenceID uuid.UUID, description string) error {
	if amount <= 0 {
		return errors.New("amount to debit must be greater than zero")
	}

	result := tx.Model(&models.User{}).
		Where("id = ? AND wallet >= ?", userID, amount).
		Update("wallet", gorm.Expr("wallet - ?", amount))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("failed to deduct balance: user not found or insufficient balance")
	}

	ledger := models.WalletTransaction{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      amount,
		Type:        models.WalletTrxDebit,
		Description: description,
		ReferenceID: &referenceID,
	}

	if err := tx.Create(&ledger).Error; err != nil {
		return err
	}

	return nil
}
