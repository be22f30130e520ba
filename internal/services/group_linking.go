package services

import (
	"context"

	intdb "musafir/internal/db"
	"musafir/internal/domain"
	"musafir/internal/domain/models"
	"musafir/internal/repositories"
)

// GroupLinker resolves member emails into the link set of a registration.
type GroupLinker struct {
	Links repositories.LinkRepository
}

type LinkResolution struct {
	Members   []string              `json:"members"`
	Conflicts []models.LinkConflict `json:"linkConflicts"`
	GroupSize int                   `json:"groupSize"`
}

// Resolve normalizes raw, reports emails already linked to another
// registration on the trip, and replaces the registration's links with the
// non-conflicting members.
func (g GroupLinker) Resolve(ctx context.Context, q intdb.Querier, tripID, registrationID int64, tripType models.TripType, raw []string, selfEmail string) (LinkResolution, error) {
	members := domain.NormalizeMembers(tripType, raw, selfEmail)
	conflicts, err := g.Links.Conflicts(ctx, q, tripID, registrationID, members)
	if err != nil {
		return LinkResolution{}, err
	}
	if err := g.Links.Replace(ctx, q, tripID, registrationID, withoutConflicts(members, conflicts)); err != nil {
		return LinkResolution{}, err
	}
	return LinkResolution{
		Members:   members,
		Conflicts: conflicts,
		GroupSize: domain.EffectiveGroupSize(members, conflicts),
	}, nil
}

// State computes the group as it stands now. Two registrations that claimed
// the same email concurrently are settled by the earlier registration keeping it.
func (g GroupLinker) State(ctx context.Context, q intdb.Querier, reg models.Registration) (domain.GroupState, []string, error) {
	if !reg.TripType.RequiresLinking() {
		return domain.GroupState{Size: 1, AllRegistered: true}, []string{}, nil
	}
	members, err := g.Links.ActiveEmails(ctx, q, reg.ID)
	if err != nil {
		return domain.GroupState{}, nil, err
	}
	conflicts, err := g.Links.Conflicts(ctx, q, reg.TripID, reg.ID, members)
	if err != nil {
		return domain.GroupState{}, nil, err
	}
	earlier := []models.LinkConflict{}
	for _, c := range conflicts {
		if c.ConflictRegistrationID < reg.ID {
			earlier = append(earlier, c)
		}
	}
	size := domain.EffectiveGroupSize(members, earlier)
	counted := size - 1

	registered, err := g.Links.CountRegistered(ctx, q, reg.TripID, withoutConflicts(members, earlier))
	if err != nil {
		return domain.GroupState{}, nil, err
	}
	return domain.GroupState{Size: size, AllRegistered: registered >= counted}, members, nil
}

func withoutConflicts(members []string, conflicts []models.LinkConflict) []string {
	bad := make(map[string]struct{}, len(conflicts))
	for _, c := range conflicts {
		bad[c.Email] = struct{}{}
	}
	out := []string{}
	for _, m := range members {
		if _, ok := bad[m]; !ok {
			out = append(out, m)
		}
	}
	return out
}
