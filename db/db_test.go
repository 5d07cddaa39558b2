package db

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/jsphweid/fretboard/config"
	"github.com/jsphweid/fretboard/highlight"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePreset(name string) Preset {
	return Preset{
		Name:   name,
		Tuning: []string{"G2", "D2", "A1", "D1"},
		Frets:  15,
		Highlight: highlight.Snapshot{
			Pitches:  map[string]string{"D1": "brown"},
			Classes:  map[string]string{"D": "orange", "F#": "orange", "A": "orange"},
			Selected: "D1",
		},
		SavedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

// fakeDynamo keeps items in memory, keyed by PK.
type fakeDynamo struct {
	dynamodbiface.DynamoDBAPI
	items map[string]map[string]*dynamodb.AttributeValue
}

func (f *fakeDynamo) PutItemWithContext(_ aws.Context, in *dynamodb.PutItemInput, _ ...request.Option) (*dynamodb.PutItemOutput, error) {
	f.items[*in.Item["PK"].S] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItemWithContext(_ aws.Context, in *dynamodb.GetItemInput, _ ...request.Option) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{Item: f.items[*in.Key["PK"].S]}, nil
}

func (f *fakeDynamo) ScanPagesWithContext(_ aws.Context, _ *dynamodb.ScanInput, fn func(*dynamodb.ScanOutput, bool) bool, _ ...request.Option) error {
	var items []map[string]*dynamodb.AttributeValue
	for pk := range f.items {
		items = append(items, map[string]*dynamodb.AttributeValue{"PK": {S: aws.String(pk)}})
	}
	// two pages to exercise the callback
	half := len(items) / 2
	if fn(&dynamodb.ScanOutput{Items: items[:half]}, false) {
		fn(&dynamodb.ScanOutput{Items: items[half:]}, true)
	}
	return nil
}

func stores() map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(),
		"dynamodb": &DynamoStore{
			client: &fakeDynamo{items: make(map[string]map[string]*dynamodb.AttributeValue)},
			table:  "fretboard-presets",
		},
	}
}

func TestSaveLoadList(t *testing.T) {
	for name, store := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			assert := assert.New(t)

			require.NoError(t, store.Save(ctx, samplePreset("drop d triad")))
			require.NoError(t, store.Save(ctx, samplePreset("a-minor")))

			got, err := store.Load(ctx, "drop d triad")
			require.NoError(t, err)
			assert.Equal(samplePreset("drop d triad"), got)

			names, err := store.List(ctx)
			require.NoError(t, err)
			assert.Equal([]string{"a-minor", "drop d triad"}, names)

			_, err = store.Load(ctx, "missing")
			assert.ErrorIs(err, ErrNotFound)
		})
	}
}

func TestSaveOverwrites(t *testing.T) {
	for name, store := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			p := samplePreset("mine")
			require.NoError(t, store.Save(ctx, p))
			p.Frets = 24
			require.NoError(t, store.Save(ctx, p))

			got, err := store.Load(ctx, "mine")
			require.NoError(t, err)
			assert.Equal(t, 24, got.Frets)
		})
	}
}

func TestCheckName(t *testing.T) {
	cases := []struct {
		name string
		ok   bool
	}{
		{"standard", true},
		{"Drop D 2", true},
		{"a_b-c.d", true},
		{"", false},
		{"   ", false},
		{"../etc", false},
		{"x/y", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := CheckName(c.name)
			if c.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidName)
			}
		})
	}

	err := NewMemoryStore().Save(context.Background(), samplePreset("bad/name"))
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestNewPicksBackend(t *testing.T) {
	s, err := New(config.DefaultConfig().Presets)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = New(config.Presets{Backend: "redis"})
	assert.Error(t, err)
}
