package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/MightyWarner19/grainlly/models"
	"github.com/MightyWarner19/grainlly/repository"
)

const addressesNS = "grainlly.addresses"

func TestAddressRepository(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("find for user", func(mt *mtest.T) {
		repo := repository.NewMongoAddressRepository(mt.DB)
		a := models.Address{ID: primitive.NewObjectID(), UserID: "user_1", FullName: "Asha Rao", City: "Pune", State: "Maharashtra"}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, addressesNS, mtest.FirstBatch, toDoc(t, a)))

		got, err := repo.FindForUser(context.Background(), a.ID, "user_1")
		assert.NoError(t, err)
		assert.Equal(t, "Pune", got.City)
	})

	mt.Run("delete missing", func(mt *mtest.T) {
		repo := repository.NewMongoAddressRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		err := repo.Delete(context.Background(), primitive.NewObjectID(), "user_1")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	mt.Run("update other user's address", func(mt *mtest.T) {
		repo := repository.NewMongoAddressRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		err := repo.Update(context.Background(), &models.Address{ID: primitive.NewObjectID(), UserID: "intruder"})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}
