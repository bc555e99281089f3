package core

import "context"

// CompanyStore is the partition-keyed record store. The partition key is the company name.
//
// AddCompany returns ErrDuplicatePartition when the partition already holds a record.
// GetByID and GetByName return ErrCompanyNotFound on a miss. Any other error is a
// transport failure wrapped with ErrUpstream.
type CompanyStore interface {
	AddCompany(ctx context.Context, company *Company) (*Company, error)
	GetByID(ctx context.Context, id, partitionKey string) (*Company, error)
	GetByName(ctx context.Context, name string) (*Company, error)
	GetIDNameMap(ctx context.Context) (map[string]string, error)
	ListAll(ctx context.Context) ([]Company, error)
}
