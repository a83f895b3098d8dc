package task

import "strings"

type SortField string
type SortOrder string

const SortByName SortField = "name"
const SortByStatus SortField = "status"
const SortByCreatedAt SortField = "createdAt"

const OrderAsc SortOrder = "asc"
const OrderDesc SortOrder = "desc"

// ListOptions описывает фильтрацию и сортировку списка задач
type ListOptions struct {
	Status string
	Search string
	SortBy SortField
	Order  SortOrder
}

// NewListOptions собирает опции из сырых значений запроса
func NewListOptions(status, search, sortBy, order string) ListOptions {
	return ListOptions{
		Status: status,
		Search: search,
		SortBy: SortField(sortBy),
		Order:  SortOrder(order),
	}.Normalized()
}

// Normalized применяет allow-list: неизвестное поле -> createdAt, неизвестный порядок -> desc
func (o ListOptions) Normalized() ListOptions {
	o.Status = strings.TrimSpace(o.Status)
	if o.Status == StatusAll {
		o.Status = ""
	}
	o.SortBy = NormalizeSortField(string(o.SortBy))
	o.Order = NormalizeOrder(string(o.Order))
	return o
}

func (o ListOptions) HasStatus() bool {
	return o.Status != "" && o.Status != StatusAll
}

func (o ListOptions) HasSearch() bool {
	return o.Search != ""
}

func NormalizeSortField(field string) SortField {
	switch SortField(field) {
	case SortByName, SortByStatus, SortByCreatedAt:
		return SortField(field)
	default:
		return SortByCreatedAt
	}
}

func NormalizeOrder(order string) SortOrder {
	switch SortOrder(strings.ToLower(order)) {
	case OrderAsc:
		return OrderAsc
	default:
		return OrderDesc
	}
}
