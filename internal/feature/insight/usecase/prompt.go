package usecase

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	authentity "stock_trader/internal/feature/auth/domain/entity"
	ledgerentity "stock_trader/internal/feature/ledger/domain/entity"
	quoteentity "stock_trader/internal/feature/quotes/domain/entity"
)

// formatCNY は金額を人民元表記に整形します。金額は分単位に丸めてから渡します。
func formatCNY(amount decimal.Decimal) string {
	cents := amount.Shift(2).Round(0).IntPart()
	return money.New(cents, money.CNY).Display()
}

// riskGuidance はリスク許容度ごとの助言方針です。
func riskGuidance(p authentity.RiskProfile) string {
	switch p {
	case authentity.RiskLow:
		return "投资者偏好低波动，请优先考虑回撤控制与分红稳定性。"
	case authentity.RiskHigh:
		return "投资者追求高收益，可以接受较大波动，请侧重成长性与弹性。"
	default:
		return "投资者偏好风险收益平衡，请关注夏普比率与仓位分散。"
	}
}

func stockPrompt(q quoteentity.Quote, profile authentity.RiskProfile) string {
	price := decimal.NewFromFloat(q.Price)
	var b strings.Builder
	b.WriteString("请你扮演一位专业的金融证券分析师（CFA持证人）。请根据以下中国A股的实时数据，为投资者写一份简短的投资研报片段（中文）：\n")
	b.WriteString("【股票基本面】\n")
	fmt.Fprintf(&b, "- 名称: %s (%s)\n", q.Name, q.Code)
	if q.Price > 0 {
		fmt.Fprintf(&b, "- 当前价格: %s\n", formatCNY(price))
		fmt.Fprintf(&b, "- 今日涨跌幅: %.2f%%\n", q.ChangePct)
	} else {
		b.WriteString("- 当前价格: 暂无行情\n")
	}
	fmt.Fprintf(&b, "【投资者画像】\n- 风险偏好: %s\n- %s\n", profile.Label(), riskGuidance(profile))
	b.WriteString("请分三点输出：\n")
	b.WriteString("1. **行情解读**：结合涨跌幅分析当前走势。\n")
	b.WriteString("2. **风险提示**：结合投资者的风险偏好说明主要风险。\n")
	b.WriteString("3. **操作建议**：给投资者的最终建议。\n")
	b.WriteString("语气要专业、客观，字数控制在 200 字左右。使用 Markdown 格式。")
	return b.String()
}

func portfolioPrompt(p *ledgerentity.Portfolio, prices map[string]quoteentity.Quote, profile authentity.RiskProfile) string {
	var b strings.Builder
	b.WriteString("请你扮演一位专业的投资顾问。请根据以下模拟账户的持仓数据，为投资者做一份简短的组合诊断（中文）：\n")
	fmt.Fprintf(&b, "【账户】\n- 可用资金: %s\n", formatCNY(p.Balance))

	marketValue := decimal.Zero
	if len(p.Holdings) == 0 {
		b.WriteString("【持仓】\n- 当前空仓\n")
	} else {
		b.WriteString("【持仓】\n")
		for _, h := range p.Holdings {
			shares := decimal.NewFromInt(h.Shares)
			cost := h.AvgCost.Mul(shares)
			line := fmt.Sprintf("- %s (%s): %d 股, 成本 %s", h.Name, h.Code, h.Shares, formatCNY(cost))
			if q, ok := prices[h.Code]; ok && q.Price > 0 {
				value := decimal.NewFromFloat(q.Price).Mul(shares).Round(2)
				marketValue = marketValue.Add(value)
				pnl := value.Sub(cost)
				line += fmt.Sprintf(", 市值 %s, 浮动盈亏 %s", formatCNY(value), formatCNY(pnl))
			} else {
				marketValue = marketValue.Add(cost)
			}
			b.WriteString(line + "\n")
		}
	}
	fmt.Fprintf(&b, "- 总资产: %s\n", formatCNY(p.Balance.Add(marketValue)))
	fmt.Fprintf(&b, "【投资者画像】\n- 风险偏好: %s\n- %s\n", profile.Label(), riskGuidance(profile))
	b.WriteString("请分三点输出：\n")
	b.WriteString("1. **组合概况**：仓位与集中度。\n")
	b.WriteString("2. **风险评估**：与投资者风险偏好是否匹配。\n")
	b.WriteString("3. **调整建议**：具体可执行的建议。\n")
	b.WriteString("语气要专业、客观，字数控制在 250 字左右。使用 Markdown 格式。")
	return b.String()
}
