package sql

import (
	_ "embed"
)

//go:embed queries/insert_analysis_run.sql
var InsertAnalysisRun string

//go:embed queries/finish_analysis_run.sql
var FinishAnalysisRun string

//go:embed queries/select_ira_drugs.sql
var SelectIRADrugs string

//go:embed queries/delete_ira_drugs.sql
var DeleteIRADrugs string

//go:embed queries/recommendation_totals.sql
var RecommendationTotals string
