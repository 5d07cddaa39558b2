package db

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jsphweid/fretboard/config"
	"github.com/jsphweid/fretboard/highlight"
	"github.com/jsphweid/fretboard/util"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
)

var (
	ErrNotFound    = errors.New("preset not found")
	ErrInvalidName = errors.New("invalid preset name")
)

var validName = regexp.MustCompile(`^[\w .-]{1,64}$`)

// Preset is a saved board: tuning, fret count and what was lit.
type Preset struct {
	Name      string             `json:"name" dynamodbav:"PK"`
	Tuning    []string           `json:"tuning" dynamodbav:"Tuning"`
	Frets     int                `json:"frets" dynamodbav:"Frets"`
	Highlight highlight.Snapshot `json:"highlight" dynamodbav:"Highlight"`
	SavedAt   time.Time          `json:"saved_at" dynamodbav:"SavedAt"`
}

type Store interface {
	Save(ctx context.Context, p Preset) error
	Load(ctx context.Context, name string) (Preset, error)
	List(ctx context.Context) ([]string, error)
}

func CheckName(name string) error {
	if !validName.MatchString(name) || strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// New picks the backend named in cfg.
func New(cfg config.Presets) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "memory":
		return NewMemoryStore(), nil
	case "dynamodb":
		return NewDynamoStore(cfg)
	}
	return nil, fmt.Errorf("unknown presets backend %q", cfg.Backend)
}

type MemoryStore struct {
	mu      sync.RWMutex
	presets map[string]Preset
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{presets: make(map[string]Preset)}
}

func (m *MemoryStore) Save(_ context.Context, p Preset) error {
	if err := CheckName(p.Name); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.presets[p.Name] = p
	return nil
}

func (m *MemoryStore) Load(_ context.Context, name string) (Preset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return p, nil
}

func (m *MemoryStore) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return util.SortedKeys(m.presets), nil
}

type DynamoStore struct {
	client dynamodbiface.DynamoDBAPI
	table  string
}

func NewDynamoStore(cfg config.Presets) (*DynamoStore, error) {
	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("could not create a DynamoDB session: %w", err)
	}
	return &DynamoStore{client: dynamodb.New(sess), table: cfg.Table}, nil
}

func (d *DynamoStore) Save(ctx context.Context, p Preset) error {
	if err := CheckName(p.Name); err != nil {
		return err
	}
	item, err := dynamodbattribute.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("could not marshal preset: %w", err)
	}
	_, err = d.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("error from DynamoDB: %w", err)
	}
	return nil
}

func (d *DynamoStore) Load(ctx context.Context, name string) (Preset, error) {
	out, err := d.client.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.table),
		Key: map[string]*dynamodb.AttributeValue{
			"PK": {S: aws.String(name)},
		},
	})
	if err != nil {
		return Preset{}, fmt.Errorf("error from DynamoDB: %w", err)
	}
	if len(out.Item) == 0 {
		return Preset{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	var p Preset
	if err := dynamodbattribute.UnmarshalMap(out.Item, &p); err != nil {
		return Preset{}, fmt.Errorf("could not unmarshal preset %q: %w", name, err)
	}
	return p, nil
}

func (d *DynamoStore) List(ctx context.Context) ([]string, error) {
	var res []string
	input := &dynamodb.ScanInput{
		TableName:            aws.String(d.table),
		ProjectionExpression: aws.String("PK"),
	}
	err := d.client.ScanPagesWithContext(ctx, input, func(page *dynamodb.ScanOutput, _ bool) bool {
		for _, item := range page.Items {
			if v, ok := item["PK"]; ok && v.S != nil {
				res = append(res, *v.S)
			}
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("error from DynamoDB: %w", err)
	}
	sort.Strings(res)
	return res, nil
}
