package content

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

var defaultTitles = []string{
	"Introduction to Power BI & Data Connectivity",
	"Power Query & Data Transformation",
	"Data Modeling & Relationships",
	"Introduction to DAX",
	"Essential DAX Functions Part 1",
	"Essential DAX Functions Part 2",
	"Advanced DAX Patterns",
	"Time Intelligence & Date Functions",
	"Power BI Visualizations",
	"Advanced Analytics & AI Features",
	"Power BI Service & Collaboration",
	"Performance Optimization & Best Practices",
}

// Catalog is the seed list of course days used when the store holds no days document.
type Catalog struct {
	Course string        `yaml:"course"`
	Days   []TrainingDay `yaml:"days"`
}

// DefaultCatalog returns the built-in twelve day Power BI course.
func DefaultCatalog() Catalog {
	days := make([]TrainingDay, len(defaultTitles))
	for i, title := range defaultTitles {
		days[i] = TrainingDay{DayNumber: i + 1, Title: title}
	}
	return Catalog{Course: "Power BI", Days: days}
}

// LoadCatalog reads a YAML catalog such as:
//
//	course: Power BI
//	days:
//	  - dayNumber: 1
//	    title: Introduction to Power BI & Data Connectivity
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}

	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if err := cat.validate(); err != nil {
		return Catalog{}, fmt.Errorf("catalog %s: %w", path, err)
	}

	sort.Slice(cat.Days, func(i, j int) bool { return cat.Days[i].DayNumber < cat.Days[j].DayNumber })
	return cat, nil
}

func (c Catalog) validate() error {
	if len(c.Days) == 0 {
		return fmt.Errorf("no days defined")
	}
	seen := make(map[int]bool, len(c.Days))
	for _, d := range c.Days {
		if d.DayNumber <= 0 {
			return fmt.Errorf("%w: %d", ErrInvalidDayNumber, d.DayNumber)
		}
		if d.Title == "" {
			return fmt.Errorf("day %d: %w", d.DayNumber, ErrTitleRequired)
		}
		if seen[d.DayNumber] {
			return fmt.Errorf("day %d listed twice", d.DayNumber)
		}
		seen[d.DayNumber] = true
	}
	return nil
}

// LockedDays returns a fresh, fully locked copy of the catalog days.
func (c Catalog) LockedDays() []TrainingDay {
	days := make([]TrainingDay, len(c.Days))
	for i, d := range c.Days {
		days[i] = TrainingDay{DayNumber: d.DayNumber, Title: d.Title}
	}
	return days
}
