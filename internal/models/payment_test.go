package models

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func paymentTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Payment{}))
	return db
}

func TestPaymentNetAmountDerived(t *testing.T) {
	db := paymentTestDB(t)

	p := Payment{
		ProjectID: uuid.New(),
		ClientID:  uuid.New(),
		CreatorID: uuid.New(),
		Amount:    10000,
		Fee:       320,
		Method:    "credit_card",
	}
	require.NoError(t, db.Create(&p).Error)
	assert.Equal(t, int64(9680), p.NetAmount)

	// net amount follows a fee change on save
	p.Fee = 500
	require.NoError(t, db.Save(&p).Error)

	var stored Payment
	require.NoError(t, db.First(&stored, "id = ?", p.ID).Error)
	assert.Equal(t, int64(9500), stored.NetAmount)
}

func TestPaymentReferenceGenerated(t *testing.T) {
	db := paymentTestDB(t)

	p := Payment{
		ProjectID: uuid.New(),
		ClientID:  uuid.New(),
		CreatorID: uuid.New(),
		Amount:    100,
		Method:    "paypal",
	}
	require.NoError(t, db.Create(&p).Error)

	assert.Len(t, p.Reference, len("PAY-")+8)
	assert.Equal(t, "PAY-", p.Reference[:4])
	assert.NotEqual(t, uuid.Nil, p.ID)
}

func TestGenerateRefCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		code := GenerateRefCode()
		assert.Len(t, code, 8)
		seen[code] = true
	}
	// collisions over 100 draws from 36^8 would mean a broken generator
	assert.Greater(t, len(seen), 90)
}
