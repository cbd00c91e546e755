package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stwalsh4118/deedchain/internal/models"
)

const (
	aliceWallet = "0xAAAAaaaaAAAAaaaaAAAAaaaaAAAAaaaaAAAA1111"
	bobWallet   = "0xBBBBbbbbBBBBbbbbBBBBbbbbBBBBbbbbBBBB2222"
	carolWallet = "0xcccccccccccccccccccccccccccccccccccc3333"
)

func testHash(b byte) string {
	const hex = "0123456789abcdef"
	out := []byte("0x")
	for i := 0; i < 64; i++ {
		out = append(out, hex[(int(b)+i)%16])
	}
	return string(out)
}

func newTestProperty(ownerName, owner string) *models.Property {
	return &models.Property{
		PropertyID:   "PROP-" + uuid.NewString()[:13],
		OwnerName:    ownerName,
		OwnerAddress: owner,
		NationalID:   "123456789012",
		VoterID:      "ABC1234567",
		Phone:        "9876543210",
		Email:        "owner@example.com",
		LandDetails: models.LandDetails{
			Address:      "12 Lake Road",
			Area:         "1000 sqft",
			SurveyNumber: "SY-42/1",
			District:     "Pune",
			State:        "Maharashtra",
		},
		TransactionRef: models.TransactionRef{Hash: testHash(1), BlockNumber: 5_000_001},
		Documents: models.DocumentURLs{
			models.DocSaleDeed: "http://localhost:8080/documents/x/saleDeed.pdf",
		},
	}
}

func newTestTransfer(propertyID, seller, buyer string) *models.Transfer {
	return &models.Transfer{
		PropertyID:     propertyID,
		Seller:         models.Party{Name: "Alice", Address: seller, Phone: "9876543210", Email: "alice@example.com"},
		Buyer:          models.Party{Name: "Bob", Address: buyer, Phone: "9123456780", Email: "bob@example.com"},
		TransactionRef: models.TransactionRef{Hash: testHash(2), BlockNumber: 5_000_002},
	}
}

// runRegistryContract exercises behaviour every RegistryRepository must share.
func runRegistryContract(t *testing.T, newRepo func(t *testing.T) RegistryRepository) {
	t.Run("create then get", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.CreateProperty(ctx, newTestProperty("Alice", aliceWallet))
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, int64(1), created.Revision)
		assert.False(t, created.RegistrationDate.IsZero())

		got, err := repo.GetPropertyByID(ctx, created.PropertyID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, created.PropertyID, got.PropertyID)
		assert.Equal(t, "Alice", got.OwnerName)
		assert.Equal(t, created.TransactionRef, got.TransactionRef)
		assert.Equal(t, created.LandDetails, got.LandDetails)
		assert.Equal(t, "http://localhost:8080/documents/x/saleDeed.pdf", got.Documents[models.DocSaleDeed])
	})

	t.Run("get missing returns nil", func(t *testing.T) {
		repo := newRepo(t)
		got, err := repo.GetPropertyByID(context.Background(), "PROP-DOES-NOT-EXIST")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("duplicate property id", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		p := newTestProperty("Alice", aliceWallet)

		_, err := repo.CreateProperty(ctx, p)
		require.NoError(t, err)
		_, err = repo.CreateProperty(ctx, p)
		assert.ErrorIs(t, err, ErrDuplicateKey)
	})

	t.Run("list newest first and by owner", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		first, err := repo.CreateProperty(ctx, newTestProperty("Alice", aliceWallet))
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
		second, err := repo.CreateProperty(ctx, newTestProperty("Carol", carolWallet))
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
		third, err := repo.CreateProperty(ctx, newTestProperty("Alice", aliceWallet))
		require.NoError(t, err)

		all, err := repo.ListProperties(ctx)
		require.NoError(t, err)
		ids := propertyIDs(all)
		assert.Less(t, indexOf(ids, third.PropertyID), indexOf(ids, second.PropertyID))
		assert.Less(t, indexOf(ids, second.PropertyID), indexOf(ids, first.PropertyID))

		mine, err := repo.ListPropertiesByOwner(ctx, "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa1111")
		require.NoError(t, err)
		mineIDs := propertyIDs(mine)
		assert.Contains(t, mineIDs, first.PropertyID)
		assert.Contains(t, mineIDs, third.PropertyID)
		assert.NotContains(t, mineIDs, second.PropertyID)
	})

	t.Run("update owner bumps revision", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		p, err := repo.CreateProperty(ctx, newTestProperty("Alice", aliceWallet))
		require.NoError(t, err)

		require.NoError(t, repo.UpdateOwner(ctx, p.PropertyID, "Bob", bobWallet, 1))

		got, err := repo.GetPropertyByID(ctx, p.PropertyID)
		require.NoError(t, err)
		assert.Equal(t, "Bob", got.OwnerName)
		assert.Equal(t, bobWallet, got.OwnerAddress)
		assert.Equal(t, int64(2), got.Revision)
		assert.Equal(t, p.LandDetails, got.LandDetails, "land details are immutable")
	})

	t.Run("update owner stale revision", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		p, err := repo.CreateProperty(ctx, newTestProperty("Alice", aliceWallet))
		require.NoError(t, err)
		require.NoError(t, repo.UpdateOwner(ctx, p.PropertyID, "Bob", bobWallet, 1))

		err = repo.UpdateOwner(ctx, p.PropertyID, "Carol", carolWallet, 1)
		assert.ErrorIs(t, err, ErrRevisionConflict)

		got, err := repo.GetPropertyByID(ctx, p.PropertyID)
		require.NoError(t, err)
		assert.Equal(t, "Bob", got.OwnerName)
	})

	t.Run("update owner missing property", func(t *testing.T) {
		repo := newRepo(t)
		err := repo.UpdateOwner(context.Background(), "PROP-MISSING", "Bob", bobWallet, 1)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("concurrent updates only one wins", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		p, err := repo.CreateProperty(ctx, newTestProperty("Alice", aliceWallet))
		require.NoError(t, err)

		var wins, conflicts int32
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := repo.UpdateOwner(ctx, p.PropertyID, "Bob", bobWallet, 1)
				switch {
				case err == nil:
					atomic.AddInt32(&wins, 1)
				case assert.ErrorIs(t, err, ErrRevisionConflict):
					atomic.AddInt32(&conflicts, 1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), wins)
		assert.Equal(t, int32(7), conflicts)
	})

	t.Run("transfers newest first", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		p, err := repo.CreateProperty(ctx, newTestProperty("Alice", aliceWallet))
		require.NoError(t, err)
		other, err := repo.CreateProperty(ctx, newTestProperty("Carol", carolWallet))
		require.NoError(t, err)

		first, err := repo.CreateTransfer(ctx, newTestTransfer(p.PropertyID, aliceWallet, bobWallet))
		require.NoError(t, err)
		assert.NotEmpty(t, first.ID)
		assert.False(t, first.TransferDate.IsZero())
		time.Sleep(5 * time.Millisecond)
		_, err = repo.CreateTransfer(ctx, newTestTransfer(other.PropertyID, carolWallet, bobWallet))
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
		withDocs := newTestTransfer(p.PropertyID, bobWallet, carolWallet)
		withDocs.Documents = models.DocumentURLs{models.DocMutationApplication: "http://x/mutation.pdf"}
		last, err := repo.CreateTransfer(ctx, withDocs)
		require.NoError(t, err)

		history, err := repo.ListTransfersByProperty(ctx, p.PropertyID)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, last.ID, history[0].ID)
		assert.Equal(t, first.ID, history[1].ID)
		assert.Equal(t, "http://x/mutation.pdf", history[0].Documents[models.DocMutationApplication])

		all, err := repo.ListTransfers(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, all)
		assert.Equal(t, last.ID, all[0].ID)
	})

	t.Run("transfer for missing property", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.CreateTransfer(context.Background(), newTestTransfer("PROP-MISSING", aliceWallet, bobWallet))
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func propertyIDs(props []models.Property) []string {
	ids := make([]string, 0, len(props))
	for _, p := range props {
		ids = append(ids, p.PropertyID)
	}
	return ids
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
