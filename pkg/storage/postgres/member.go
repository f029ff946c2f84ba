package postgres

import (
	"context"
	"fmt"
	"strings"

	"duesbook/pkg/domain"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

const (
	membersTable = "members"
)

func (p *PgSQL) StoreMember(ctx context.Context, member domain.Member) (*domain.Member, error) {
	var row PgMember
	row.FromDomain(member)

	var result []PgMember
	if err := p.Builder.Insert(membersTable).
		Rows(row).
		Returning(&PgMember{}).
		Executor().ScanStructsContext(ctx, &result); err != nil {
		return nil, classify(err, "could not store member into pg")
	}
	if len(result) != 1 {
		return nil, fmt.Errorf("could not store member into pg: %d rows returned", len(result))
	}

	return result[0].ToDomain(), nil
}

// MemberByEmail matches on lower(email), the expression backing the unique index.
func (p *PgSQL) MemberByEmail(ctx context.Context, email string) (*domain.Member, error) {
	var row PgMember
	found, err := p.Builder.From(membersTable).
		Where(goqu.Func("lower", goqu.I("email")).Eq(strings.ToLower(email))).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not fetch member by email: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain(), nil
}

func (p *PgSQL) MemberByID(ctx context.Context, id domain.MemberID) (*domain.Member, error) {
	var row PgMember
	found, err := p.Builder.From(membersTable).
		Where(goqu.I("id").Eq(uuid.UUID(id))).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not fetch member by id: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain(), nil
}
