package task

import "fmt"

type Status string

const StatusIncomplete Status = "Incomplete"
const StatusComplete Status = "Complete"

const StatusToDo Status = "To Do"
const StatusInProgress Status = "In Progress"
const StatusInReview Status = "In Review"
const StatusDone Status = "Done"

// StatusAll отключает фильтр по статусу
const StatusAll = "All"

// StatusSet - упорядоченный набор допустимых статусов, первый элемент - значение по умолчанию
type StatusSet []Status

const SetClassic = "classic"
const SetBoard = "board"

var ClassicStatuses = StatusSet{StatusIncomplete, StatusComplete}
var BoardStatuses = StatusSet{StatusToDo, StatusInProgress, StatusInReview, StatusDone}

func StatusSetByName(name string) (StatusSet, error) {
	switch name {
	case SetClassic:
		return ClassicStatuses, nil
	case SetBoard, "":
		return BoardStatuses, nil
	default:
		return nil, fmt.Errorf("неизвестный набор статусов %q", name)
	}
}

func (s StatusSet) Default() Status {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

func (s StatusSet) Contains(status Status) bool {
	for _, st := range s {
		if st == status {
			return true
		}
	}
	return false
}

func (s StatusSet) Strings() []string {
	res := make([]string, len(s))
	for i, st := range s {
		res[i] = string(st)
	}
	return res
}
