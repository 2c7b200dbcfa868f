package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	prefixSelectCategory = "select_category_"
	prefixStartTest      = "start_test_"
	prefixAnswer         = "answer_"
	dataBackToCategories = "back_to_categories"
)

type callbackKind int

const (
	cbUnknown callbackKind = iota
	cbSelectCategory
	cbStartTest
	cbAnswer
	cbBack
)

// callback is parsed inline button data.
type callback struct {
	kind       callbackKind
	categoryID int64
	questionID int64
	answerID   int64
	value      int
}

var errBadCallback = errors.New("malformed callback data")

func answerData(questionID, answerID int64, value int) string {
	return fmt.Sprintf("%s%d_%d_%d", prefixAnswer, questionID, answerID, value)
}

func parseCallback(data string) (callback, error) {
	switch {
	case data == dataBackToCategories:
		return callback{kind: cbBack}, nil

	case strings.HasPrefix(data, prefixSelectCategory):
		id, err := parseID(strings.TrimPrefix(data, prefixSelectCategory))
		return callback{kind: cbSelectCategory, categoryID: id}, err

	case strings.HasPrefix(data, prefixStartTest):
		id, err := parseID(strings.TrimPrefix(data, prefixStartTest))
		return callback{kind: cbStartTest, categoryID: id}, err

	case strings.HasPrefix(data, prefixAnswer):
		parts := strings.Split(strings.TrimPrefix(data, prefixAnswer), "_")
		if len(parts) != 3 {
			return callback{}, errBadCallback
		}
		qid, err := parseID(parts[0])
		if err != nil {
			return callback{}, err
		}
		aid, err := parseID(parts[1])
		if err != nil {
			return callback{}, err
		}
		value, err := strconv.Atoi(parts[2])
		if err != nil {
			return callback{}, errBadCallback
		}
		return callback{kind: cbAnswer, questionID: qid, answerID: aid, value: value}, nil
	}
	return callback{}, errBadCallback
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadCallback
	}
	return id, nil
}
