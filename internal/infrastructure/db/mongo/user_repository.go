package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/titantech/kyc-gateway/internal/core/domain"
	"github.com/titantech/kyc-gateway/internal/core/ports"
)

const usersCollection = "users"

// UserRepository implements ports.UserRepository using MongoDB.
type UserRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

var _ ports.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		coll: db.Collection(usersCollection),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

type mongoUser struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty"`
	OfficialName       string             `bson:"official_name"`
	Email              string             `bson:"email"`
	PasswordHash       string             `bson:"password_hash"`
	DateOfBirth        *time.Time         `bson:"date_of_birth,omitempty"`
	SecurityQuestion   string             `bson:"security_question,omitempty"`
	SecurityAnswerHash string             `bson:"security_answer_hash,omitempty"`
	PhoneNumber        string             `bson:"phone_number,omitempty"`
	ProfileComplete    bool               `bson:"profile_complete"`

	DigilockerVerified         bool       `bson:"digilocker_verified"`
	DigilockerVerificationCode string     `bson:"digilocker_verification_code,omitempty"`
	DigilockerVerifiedAt       *time.Time `bson:"digilocker_verified_at,omitempty"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	doc := mongoUser{
		OfficialName: user.OfficialName,
		Email:        domain.NormalizeEmail(user.Email),
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt.UTC(),
		UpdatedAt:    user.UpdatedAt.UTC(),
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": domain.NormalizeEmail(email)})
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// UpdateProfile sets the profile fields and flips profile_complete.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, p domain.ProfileUpdate) (*domain.User, error) {
	dob := p.DateOfBirth.UTC()
	return r.updateOne(ctx, id, bson.M{
		"date_of_birth":        dob,
		"security_question":    p.SecurityQuestion,
		"security_answer_hash": p.SecurityAnswerHash,
		"phone_number":         p.PhoneNumber,
		"profile_complete":     true,
	})
}

// UpdateVerification writes the DigiLocker fields in a single document update.
func (r *UserRepository) UpdateVerification(ctx context.Context, id string, v domain.VerificationUpdate) (*domain.User, error) {
	return r.updateOne(ctx, id, bson.M{
		"digilocker_verified":          v.Verified,
		"digilocker_verification_code": v.Code,
		"digilocker_verified_at":       v.VerifiedAt.UTC(),
	})
}

// EnsureIndexes creates the unique email index and the signup-order index.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return mu.toDomain(), nil
}

func (r *UserRepository) updateOne(ctx context.Context, id string, set bson.M) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	set["updated_at"] = r.now()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var mu mongoUser
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&mu)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return mu.toDomain(), nil
}

func (mu *mongoUser) toDomain() *domain.User {
	u := &domain.User{
		ID:                         mu.ID.Hex(),
		OfficialName:               mu.OfficialName,
		Email:                      mu.Email,
		PasswordHash:               mu.PasswordHash,
		SecurityQuestion:           mu.SecurityQuestion,
		SecurityAnswerHash:         mu.SecurityAnswerHash,
		PhoneNumber:                mu.PhoneNumber,
		ProfileComplete:            mu.ProfileComplete,
		DigilockerVerified:         mu.DigilockerVerified,
		DigilockerVerificationCode: mu.DigilockerVerificationCode,
		CreatedAt:                  mu.CreatedAt.UTC(),
		UpdatedAt:                  mu.UpdatedAt.UTC(),
	}
	if mu.DateOfBirth != nil {
		u.DateOfBirth = mu.DateOfBirth.UTC()
	}
	if mu.DigilockerVerifiedAt != nil {
		u.DigilockerVerifiedAt = mu.DigilockerVerifiedAt.UTC()
	}
	return u
}
